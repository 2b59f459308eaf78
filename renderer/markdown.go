package renderer

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	mxml "github.com/tdewolff/minify/v2/xml"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlRenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Heading represents a heading entry for table-of-contents rendering.
type Heading struct {
	ID    string
	Text  string
	Level int
}

// RenderResult wraps HTML markup and extracted metadata.
type RenderResult struct {
	HTML      []byte
	PlainText string
	Headings  []Heading
	Links     []string
	Images    []string
}

// Renderer transforms markdown sources into HTML fragments.
type Renderer struct {
	md       goldmark.Markdown
	minifier *minify.M
	minify   bool
}

// New constructs a renderer with GitHub-flavored markdown extensions and
// syntax highlighting. When minifyOutput is set, MinifyHTML compacts markup.
func New(minifyOutput bool) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.DefinitionList,
			extension.Footnote,
			extension.Table,
			extension.TaskList,
			extension.Typographer,
			extension.Strikethrough,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
					chromahtml.WithAllClasses(true),
					chromahtml.ClassPrefix("z-"),
					chromahtml.PreventSurroundingPre(true),
				),
				highlighting.WithWrapperRenderer(codeWrapper),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			htmlRenderer.WithUnsafe(),
		),
	)

	m := minify.New()
	m.Add("text/html", &mhtml.Minifier{KeepDocumentTags: true, KeepEndTags: true, KeepQuotes: true})
	m.AddFuncRegexp(regexp.MustCompile("[/+]xml$"), mxml.Minify)

	return &Renderer{md: md, minifier: m, minify: minifyOutput}
}

// Render converts the provided markdown into HTML and extracts metadata for
// navigation, search, and link checking.
func (r *Renderer) Render(src []byte) (*RenderResult, error) {
	reader := text.NewReader(src)
	doc := r.md.Parser().Parse(reader)

	headings := make([]Heading, 0, 16)
	links := make([]string, 0, 8)
	images := make([]string, 0, 4)
	plainBuilder := &strings.Builder{}
	plainStop := -1
	var plainLast byte
	slugCounts := make(map[string]int)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if entering {
				attr, _ := node.AttributeString("id")
				text := extractText(node, src)
				id := attributeToString(attr)
				if id == "" {
					base := slugify(text)
					count := slugCounts[base]
					if count > 0 {
						id = fmt.Sprintf("%s-%d", base, count)
					} else {
						id = base
					}
					slugCounts[base] = count + 1
					node.SetAttributeString("id", []byte(id))
				} else {
					slugCounts[id]++
				}
				headings = append(headings, Heading{ID: id, Text: text, Level: node.Level})
			}
		case *ast.Link:
			if entering {
				links = append(links, string(node.Destination))
			}
		case *ast.AutoLink:
			if entering {
				links = append(links, string(node.URL(src)))
			}
		case *ast.Image:
			if entering {
				images = append(images, string(node.Destination))
			}
		case *ast.Text:
			if entering {
				segment := node.Segment
				value := segment.Value(src)
				if len(value) == 0 {
					break
				}
				// Segments adjacent in the source stay joined: the
				// typographer splits trailing punctuation into its own node.
				if plainStop >= 0 && segment.Start > plainStop && !isSpaceByte(plainLast) && !isSpaceByte(value[0]) {
					plainBuilder.WriteByte(' ')
				}
				plainBuilder.Write(value)
				plainLast = value[len(value)-1]
				plainStop = segment.Stop
			}
		}
		return ast.WalkContinue, nil
	})

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, err
	}

	return &RenderResult{
		HTML:      buf.Bytes(),
		PlainText: strings.TrimSpace(plainBuilder.String()),
		Headings:  headings,
		Links:     links,
		Images:    images,
	}, nil
}

// MinifyHTML compacts a complete HTML document when minification is enabled.
func (r *Renderer) MinifyHTML(raw []byte) ([]byte, error) {
	if !r.minify {
		return raw, nil
	}
	out, err := r.minifier.Bytes("text/html", raw)
	if err != nil {
		return nil, fmt.Errorf("minify html: %w", err)
	}
	return out, nil
}

// MinifyXML compacts feed and sitemap output when minification is enabled.
func (r *Renderer) MinifyXML(raw []byte) ([]byte, error) {
	if !r.minify {
		return raw, nil
	}
	out, err := r.minifier.Bytes("text/xml", raw)
	if err != nil {
		return nil, fmt.Errorf("minify xml: %w", err)
	}
	return out, nil
}

func extractText(root ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if n == root {
			return ast.WalkContinue, nil
		}
		if text, ok := n.(*ast.Text); ok && entering {
			sb.Write(text.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func attributeToString(value interface{}) string {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return ""
	}
}

func slugify(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return "section"
	}
	var sb strings.Builder
	lastDash := false
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if sb.Len() == 0 || lastDash {
				continue
			}
			sb.WriteByte('-')
			lastDash = true
		default:
			// Skip other characters
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		return "section"
	}
	return slug
}

func codeWrapper(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
	lang := "text"
	if raw, ok := ctx.Language(); ok && len(raw) > 0 {
		lang = string(raw)
	}
	lang = string(util.EscapeHTML([]byte(lang)))
	if entering {
		_, _ = fmt.Fprintf(w, `<pre tabindex="0" class="z-chroma z-code language-%[1]s" data-lang="%[1]s"><code class="language-%[1]s" data-lang="%[1]s">`, lang)
		return
	}
	_, _ = w.WriteString("</code></pre>\n")
}
