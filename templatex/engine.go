package templatex

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	PostContentTemplate     = "content-post"
	ListContentTemplate     = "content-list"
	TermsContentTemplate    = "content-terms"
	NotFoundContentTemplate = "content-404"
	LayoutTemplate          = "layout"
)

// Engine is a thin wrapper around Go templates with a shared layout.
type Engine struct {
	templates *template.Template
	StaticDir string
}

// Site carries the configuration-derived values every page sees.
type Site struct {
	Title           string
	BaseURL         string
	BasePath        string
	LanguageCode    string
	Description     string
	Author          string
	GoogleAnalytics string
	ShowHeader      bool
	ShowSidebar     bool
	ShowFooter      bool
	Comments        string
	Shortname       string
	Social          map[string]string
	Menu            []MenuItem
	SearchIndexURL  string
}

// MenuItem is a navigation entry ordered by weight.
type MenuItem struct {
	Name   string
	URL    string
	Pre    template.HTML
	Active bool
}

// Page is the per-article block of the layout data model.
type Page struct {
	Title       string
	Route       string
	Permalink   string
	Date        time.Time
	Lastmod     time.Time
	Draft       bool
	Categories  []CategoryRef
	Tags        []string
	Summary     string
	ReadingTime int
	ContentHTML template.HTML
	Sections    []TOCEntry
	GitHash     string
	GitShort    string
}

// CategoryRef links a category name to its listing page.
type CategoryRef struct {
	Name string
	URL  string
}

// TOCEntry models a single heading for sidebar navigation.
type TOCEntry struct {
	ID    string
	Text  string
	Level int
}

// Pagination describes the window of a list page.
type Pagination struct {
	Current  int
	Total    int
	PrevURL  string
	NextURL  string
	PageURLs []string
}

// PageData is the data model expected by the layout template.
type PageData struct {
	Site            Site
	Page            *Page
	Posts           []*Page
	Categories      []CategoryGroup
	Pagination      *Pagination
	ContentTemplate string
	PageTitle       string
	RequestedPath   string
	FeedURL         string
}

// CategoryGroup is one entry of the category index page.
type CategoryGroup struct {
	Name  string
	URL   string
	Count int
}

// Load instantiates an engine using files from layoutDir. Partials live in
// a partials/ subdirectory; theme assets in assets/.
func Load(layoutDir string) (*Engine, error) {
	if layoutDir == "" {
		return nil, fmt.Errorf("layout directory not configured")
	}

	engine := &Engine{}
	titleCaser := cases.Title(language.English)

	funcs := template.FuncMap{
		"safeHTML": func(v any) template.HTML {
			switch value := v.(type) {
			case template.HTML:
				return value
			case string:
				return template.HTML(value)
			default:
				return ""
			}
		},
		"baseHref": func(base string) string {
			base = strings.TrimSpace(base)
			if base == "" || base == "/" {
				return "/"
			}
			trimmed := strings.Trim(base, "/")
			return "/" + trimmed + "/"
		},
		"dateFormat": func(layout string, t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format(layout)
		},
		"isoDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format(time.RFC3339)
		},
		"titleCase": titleCaser.String,
	}

	files := make([]string, 0)
	mainPattern := filepath.Join(layoutDir, "*.html")
	mainFiles, err := filepath.Glob(mainPattern)
	if err != nil {
		return nil, fmt.Errorf("glob main templates: %w", err)
	}
	files = append(files, mainFiles...)

	partialsDir := filepath.Join(layoutDir, "partials")
	if info, err := os.Stat(partialsDir); err == nil && info.IsDir() {
		partialPattern := filepath.Join(partialsDir, "*.html")
		partialFiles, err := filepath.Glob(partialPattern)
		if err != nil {
			return nil, fmt.Errorf("glob partial templates: %w", err)
		}
		files = append(files, partialFiles...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found in %s", layoutDir)
	}

	sort.Strings(files)

	tpl, err := template.New("root").Funcs(funcs).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	if tpl.Lookup(LayoutTemplate) == nil {
		return nil, fmt.Errorf("template %q is not defined", LayoutTemplate)
	}

	engine.templates = tpl

	assetsPath := filepath.Join(layoutDir, "assets")
	if info, err := os.Stat(assetsPath); err == nil && info.IsDir() {
		engine.StaticDir = assetsPath
	}

	return engine, nil
}

// Render writes the rendered layout into the provided writer.
func (e *Engine) Render(w io.Writer, data *PageData) error {
	if e.templates == nil {
		return fmt.Errorf("template engine not initialized")
	}
	if data != nil && strings.TrimSpace(data.ContentTemplate) == "" {
		data.ContentTemplate = PostContentTemplate
	}
	return e.templates.ExecuteTemplate(w, LayoutTemplate, data)
}
