package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

// ErrNoFrontMatter is returned when a markdown file carries no metadata header.
var ErrNoFrontMatter = errors.New("missing front matter")

// FrontMatter is the metadata header attached to each article. YAML, TOML,
// and JSON fences are all accepted.
type FrontMatter struct {
	Title       string   `yaml:"title"       toml:"title"       json:"title"`
	Date        string   `yaml:"date"        toml:"date"        json:"date"`
	Lastmod     string   `yaml:"lastmod"     toml:"lastmod"     json:"lastmod"`
	Draft       bool     `yaml:"draft"       toml:"draft"       json:"draft"`
	Categories  []string `yaml:"categories"  toml:"categories"  json:"categories"`
	Tags        []string `yaml:"tags"        toml:"tags"        json:"tags"`
	Slug        string   `yaml:"slug"        toml:"slug"        json:"slug"`
	Description string   `yaml:"description" toml:"description" json:"description"`
	Aliases     []string `yaml:"aliases"     toml:"aliases"     json:"aliases"`
}

// Post is a fully parsed article ready for rendering and listing.
type Post struct {
	Source     string // path relative to the content dir, slash-separated
	BundleDir  string // bundle directory relative to the content dir, "" for flat files
	Slug       string
	Route      string // site-rooted pretty URL, e.g. /posts/slice-bug/
	OutputPath string // output-relative HTML path, e.g. posts/slice-bug/index.html

	Title       string
	Date        time.Time
	Lastmod     time.Time
	Draft       bool
	Categories  []string
	Tags        []string
	Description string
	Aliases     []string

	Body        []byte // markdown with the front matter stripped
	HTML        template.HTML
	PlainText   string
	Summary     string
	ReadingTime int
	Headings    []Heading
	Links       []string
	Images      []string
	Assets      []string // bundle siblings, relative to BundleDir

	GitHash string
}

// Heading mirrors a rendered heading for table-of-contents listings.
type Heading struct {
	ID    string
	Text  string
	Level int
}

const summaryDivider = "<!--more-->"

// Accepted in the order Hugo documents them; the blog's own articles use the
// bare date form.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseFrontMatter splits a raw article into typed metadata and body.
func ParseFrontMatter(raw []byte) (*FrontMatter, []byte, error) {
	var fm FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return nil, nil, fmt.Errorf("parse front matter: %w", err)
	}
	if len(body) == len(raw) {
		return nil, body, ErrNoFrontMatter
	}
	return &fm, body, nil
}

// ParseDate accepts the date layouts the front matter contract allows.
func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// SlugFrom derives a slug from an explicit front matter value or the source
// file name. Bundle index files take the bundle directory's name.
func SlugFrom(explicit, source string) string {
	if s := Slugify(explicit); s != "" {
		return s
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if strings.EqualFold(base, "index") {
		base = filepath.Base(filepath.Dir(source))
	}
	if s := Slugify(base); s != "" {
		return s
	}
	return "untitled"
}

// Slugify lowercases and strips input down to url-safe characters.
func Slugify(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
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
	return strings.Trim(sb.String(), "-")
}

// TitleFrom falls back to a humanized file name when front matter has no title.
func TitleFrom(explicit, source string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if strings.EqualFold(name, "index") {
		name = filepath.Base(filepath.Dir(source))
	}
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "Untitled"
	}
	return name
}

// SplitSummary returns the markdown ahead of the explicit summary divider.
func SplitSummary(body []byte) ([]byte, bool) {
	idx := bytes.Index(body, []byte(summaryDivider))
	if idx < 0 {
		return nil, false
	}
	head := bytes.TrimSpace(body[:idx])
	if len(head) == 0 {
		return nil, false
	}
	return head, true
}

// Summarize prefers the front matter description, then a truncated
// plain-text prefix. Divider-based summaries are resolved by the caller,
// which can re-render the leading markdown.
func Summarize(description, plain string) string {
	if d := strings.TrimSpace(description); d != "" {
		return d
	}
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return ""
	}
	runes := []rune(plain)
	if len(runes) <= 200 {
		return plain
	}
	return string(runes[:200]) + "..."
}

// ReadingTime estimates minutes at ~210 words per minute, never below one.
func ReadingTime(plain string) int {
	words := len(strings.Fields(plain))
	if words == 0 {
		return 1
	}
	minutes := (words + 209) / 210
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
