package renderer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBasic(t *testing.T) {
	r := New(false)
	res, err := r.Render([]byte("# Title\n\nSome **bold** text.\n"))
	require.NoError(t, err)

	html := string(res.HTML)
	assert.Contains(t, html, `<h1 id="title">Title</h1>`)
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, res.PlainText, "Title")
	assert.Contains(t, res.PlainText, "bold")
}

func TestRenderPlainTextPunctuation(t *testing.T) {
	r := New(false)
	res, err := r.Render([]byte("First paragraph ends here.\n"))
	require.NoError(t, err)
	assert.Equal(t, "First paragraph ends here.", res.PlainText)
}

func TestRenderPlainTextSeparation(t *testing.T) {
	r := New(false)
	res, err := r.Render([]byte("One sentence.\n\nAnd **another** one!\n"))
	require.NoError(t, err)
	assert.Equal(t, "One sentence. And another one!", res.PlainText)
}

func TestRenderHeadingIDs(t *testing.T) {
	r := New(false)
	res, err := r.Render([]byte("# Setup\n\n## Setup\n\n## Usage\n"))
	require.NoError(t, err)

	require.Len(t, res.Headings, 3)
	assert.Equal(t, "setup", res.Headings[0].ID)
	assert.Equal(t, 1, res.Headings[0].Level)
	assert.Equal(t, "setup-1", res.Headings[1].ID)
	assert.Equal(t, "usage", res.Headings[2].ID)
}

func TestRenderExplicitHeadingID(t *testing.T) {
	r := New(false)
	res, err := r.Render([]byte("## Install {#getting-started}\n"))
	require.NoError(t, err)

	require.Len(t, res.Headings, 1)
	assert.Equal(t, "getting-started", res.Headings[0].ID)
	assert.Contains(t, string(res.HTML), `id="getting-started"`)
}

func TestRenderLinksAndImages(t *testing.T) {
	r := New(false)
	src := "[rel](/posts/a/) and [ext](https://example.com) plus ![pic](diagram.png)\n\nhttps://auto.example.com\n"
	res, err := r.Render([]byte(src))
	require.NoError(t, err)

	assert.Contains(t, res.Links, "/posts/a/")
	assert.Contains(t, res.Links, "https://example.com")
	assert.Contains(t, res.Links, "https://auto.example.com")
	assert.Equal(t, []string{"diagram.png"}, res.Images)
}

func TestRenderCodeBlock(t *testing.T) {
	r := New(false)
	res, err := r.Render([]byte("```go\nfunc main() {}\n```\n"))
	require.NoError(t, err)

	html := string(res.HTML)
	assert.Contains(t, html, `data-lang="go"`)
	assert.Contains(t, html, "z-chroma")
	assert.NotContains(t, html, "<pre><pre")
}

func TestRenderTable(t *testing.T) {
	r := New(false)
	res, err := r.Render([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	assert.Contains(t, string(res.HTML), "<table>")
}

func TestMinifyHTMLDisabled(t *testing.T) {
	r := New(false)
	in := []byte("<html>\n  <body>  spaced  </body>\n</html>\n")
	out, err := r.MinifyHTML(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMinifyHTMLEnabled(t *testing.T) {
	r := New(true)
	out, err := r.MinifyHTML([]byte("<html>\n  <body>\n    <p>hi</p>\n  </body>\n</html>\n"))
	require.NoError(t, err)
	assert.Less(t, len(out), len("<html>\n  <body>\n    <p>hi</p>\n  </body>\n</html>\n"))
	assert.Contains(t, string(out), "<p>hi</p>")
}

func TestMinifyXMLEnabled(t *testing.T) {
	r := New(true)
	out, err := r.MinifyXML([]byte("<urlset>\n  <url>\n    <loc>https://x/</loc>\n  </url>\n</urlset>\n"))
	require.NoError(t, err)
	got := string(out)
	assert.Contains(t, got, "<loc>https://x/</loc>")
	assert.False(t, strings.Contains(got, "\n  "))
}
