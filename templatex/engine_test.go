package templatex

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := Load(filepath.Join("testdata", "layouts"))
	require.NoError(t, err)
	return engine
}

func TestLoad(t *testing.T) {
	engine := loadEngine(t)
	assert.Equal(t, filepath.Join("testdata", "layouts", "assets"), engine.StaticDir)
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "absent"))
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}

func TestRenderPost(t *testing.T) {
	engine := loadEngine(t)

	var buf bytes.Buffer
	err := engine.Render(&buf, &PageData{
		Site: Site{
			LanguageCode: "en-us",
			BasePath:     "/notes/",
			Menu: []MenuItem{
				{Name: "Home", URL: "/", Active: true},
				{Name: "Categories", URL: "/categories/"},
			},
		},
		Page: &Page{
			Title:       "The Slice Bug",
			Date:        time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
			ContentHTML: "<p>body</p>",
		},
		PageTitle: "The Slice Bug - Blog",
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `<base href="/notes/">`)
	assert.Contains(t, html, "<title>The Slice Bug - Blog</title>")
	assert.Contains(t, html, "<h1>The Slice Bug</h1>")
	assert.Contains(t, html, `datetime="2024-03-10T09:00:00Z"`)
	assert.Contains(t, html, "<p>body</p>")
	assert.Contains(t, html, `<a href="/" class="active">Home</a>`)
}

func TestRenderList(t *testing.T) {
	engine := loadEngine(t)

	var buf bytes.Buffer
	err := engine.Render(&buf, &PageData{
		Posts: []*Page{
			{Title: "One", Route: "/posts/one/"},
			{Title: "Two", Route: "/posts/two/"},
		},
		Pagination:      &Pagination{Current: 2, Total: 3},
		ContentTemplate: ListContentTemplate,
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `<a href="/posts/one/">One</a>`)
	assert.Contains(t, html, "page 2 of 3")
}

func TestRenderTerms(t *testing.T) {
	engine := loadEngine(t)

	var buf bytes.Buffer
	err := engine.Render(&buf, &PageData{
		Categories: []CategoryGroup{
			{Name: "debugging", URL: "/categories/debugging/", Count: 2},
		},
		ContentTemplate: TermsContentTemplate,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `<a href="/categories/debugging/">Debugging</a> (2)`)
}

func TestRenderNotFound(t *testing.T) {
	engine := loadEngine(t)

	var buf bytes.Buffer
	err := engine.Render(&buf, &PageData{
		RequestedPath:   "/missing/",
		ContentTemplate: NotFoundContentTemplate,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "not found: /missing/")
}

func TestRenderDefaultsToPost(t *testing.T) {
	engine := loadEngine(t)

	var buf bytes.Buffer
	err := engine.Render(&buf, &PageData{Page: &Page{Title: "Implicit"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<h1>Implicit</h1>")
}

func TestBaseHref(t *testing.T) {
	engine := loadEngine(t)

	var buf bytes.Buffer
	err := engine.Render(&buf, &PageData{Page: &Page{}, Site: Site{BasePath: "/"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `<base href="/">`)
}
