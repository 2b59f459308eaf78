package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennadev/penna/content"
)

func makePosts(n int) []*content.Post {
	posts := make([]*content.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, &content.Post{Slug: string(rune('a' + i))})
	}
	return posts
}

func TestPaginate(t *testing.T) {
	pages := paginate("/", "Home", makePosts(5), 2)
	require.Len(t, pages, 3)

	assert.Equal(t, "/", pages[0].Route)
	assert.Equal(t, "index.html", pages[0].OutputPath)
	assert.Len(t, pages[0].Posts, 2)
	assert.Equal(t, "", pages[0].Pagination.PrevURL)
	assert.Equal(t, "/page/2/", pages[0].Pagination.NextURL)

	assert.Equal(t, "/page/2/", pages[1].Route)
	assert.Equal(t, "page/2/index.html", pages[1].OutputPath)
	assert.Equal(t, "/", pages[1].Pagination.PrevURL)
	assert.Equal(t, "/page/3/", pages[1].Pagination.NextURL)

	assert.Equal(t, "/page/3/", pages[2].Route)
	assert.Len(t, pages[2].Posts, 1)
	assert.Equal(t, "", pages[2].Pagination.NextURL)

	assert.Equal(t, []string{"/", "/page/2/", "/page/3/"}, pages[0].Pagination.PageURLs)
}

func TestPaginateEmpty(t *testing.T) {
	pages := paginate("/", "Home", nil, 10)
	require.Len(t, pages, 1)
	assert.Equal(t, "/", pages[0].Route)
	assert.Empty(t, pages[0].Posts)
	assert.Equal(t, 1, pages[0].Pagination.Total)
}

func TestPaginateCategoryBase(t *testing.T) {
	pages := paginate("/categories/go/", "go", makePosts(3), 2)
	require.Len(t, pages, 2)
	assert.Equal(t, "/categories/go/", pages[0].Route)
	assert.Equal(t, "categories/go/index.html", pages[0].OutputPath)
	assert.Equal(t, "/categories/go/page/2/", pages[1].Route)
	assert.Equal(t, "categories/go/page/2/index.html", pages[1].OutputPath)
}

func TestCategoryRoute(t *testing.T) {
	assert.Equal(t, "/categories/go/", categoryRoute("Go"))
	assert.Equal(t, "/categories/memory-safety/", categoryRoute("Memory Safety"))
}

func TestAliasRoute(t *testing.T) {
	assert.Equal(t, "/old/slice-bug/", aliasRoute("/old/slice-bug"))
	assert.Equal(t, "/old/slice-bug/", aliasRoute("old/slice-bug/"))
	assert.Equal(t, "", aliasRoute("///"))
	assert.Equal(t, "", aliasRoute(""))
}

func TestRouteOutputDir(t *testing.T) {
	assert.Equal(t, ".", routeOutputDir("/"))
	assert.Equal(t, "posts/x", routeOutputDir("/posts/x/"))
	assert.Equal(t, "categories/go/page/2", routeOutputDir("/categories/go/page/2/"))
}
