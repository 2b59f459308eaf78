package site

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticDocumentPath(t *testing.T) {
	svc := newTestService(t, filepath.Join("testdata", "blog", "config.toml"))
	out := svc.cfg.OutputDir

	cases := []struct {
		request string
		want    string
	}{
		{"/", filepath.Join(out, "index.html")},
		{"", filepath.Join(out, "index.html")},
		{"/posts/slice-bug/", filepath.Join(out, "posts", "slice-bug", "index.html")},
		{"/posts/slice-bug", filepath.Join(out, "posts", "slice-bug", "index.html")},
		{"/css/site.css", filepath.Join(out, "css", "site.css")},
		{"/../etc/passwd", filepath.Join(out, "etc", "passwd", "index.html")},
		{"/a/../b/", filepath.Join(out, "b", "index.html")},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, svc.StaticDocumentPath(tc.request), tc.request)
	}
}

func TestNotFoundDocumentPath(t *testing.T) {
	svc := newTestService(t, filepath.Join("testdata", "blog", "config.toml"))
	assert.Equal(t, filepath.Join(svc.cfg.OutputDir, "404.html"), svc.NotFoundDocumentPath())
}

func TestMenuEntryActive(t *testing.T) {
	assert.True(t, menuEntryActive("/", "/"))
	assert.False(t, menuEntryActive("/", "/posts/a/"))
	assert.True(t, menuEntryActive("/categories/", "/categories/"))
	assert.True(t, menuEntryActive("/categories/", "/categories/go/"))
	assert.False(t, menuEntryActive("/categories/", "/posts/a/"))
	assert.False(t, menuEntryActive("https://example.com/", "/"))
}
