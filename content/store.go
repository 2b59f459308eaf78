package content

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pennadev/penna/renderer"
)

// Problem records a non-fatal metadata defect found while loading content.
// Build logs them; check reports them as lint errors.
type Problem struct {
	Source  string
	Message string
}

func (p Problem) String() string {
	return p.Source + ": " + p.Message
}

// Store loads the markdown tree beneath a content directory.
type Store struct {
	dir      string
	renderer *renderer.Renderer
}

// NewStore constructs a store rooted at dir.
func NewStore(dir string, r *renderer.Renderer) *Store {
	return &Store{dir: dir, renderer: r}
}

// Dir returns the content root.
func (s *Store) Dir() string {
	return s.dir
}

// Load parses and renders every markdown file under the content root.
// IO and render failures abort the load; metadata defects are collected as
// problems so a half-broken tree still previews.
func (s *Store) Load(ctx context.Context) ([]*Post, []Problem, error) {
	sources, err := s.listSources()
	if err != nil {
		return nil, nil, err
	}

	posts := make([]*Post, len(sources))
	problems := make([][]Problem, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			post, probs, err := s.loadOne(src)
			if err != nil {
				return err
			}
			posts[i] = post
			problems[i] = probs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	flat := make([]Problem, 0)
	for _, probs := range problems {
		flat = append(flat, probs...)
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Route < posts[j].Route
		}
		return posts[i].Date.After(posts[j].Date)
	})
	return posts, flat, nil
}

func (s *Store) listSources() ([]string, error) {
	if _, err := os.Stat(s.dir); err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}
	sources := make([]string, 0, 64)
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != s.dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		sources = append(sources, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content: %w", err)
	}
	sort.Strings(sources)
	return sources, nil
}

func (s *Store) loadOne(source string) (*Post, []Problem, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(source)))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", source, err)
	}

	var problems []Problem
	fm, body, err := ParseFrontMatter(raw)
	switch {
	case errors.Is(err, ErrNoFrontMatter):
		fm = &FrontMatter{}
		problems = append(problems, Problem{Source: source, Message: "missing front matter"})
	case err != nil:
		fm = &FrontMatter{}
		body = raw
		problems = append(problems, Problem{Source: source, Message: err.Error()})
	}

	rendered, err := s.renderer.Render(body)
	if err != nil {
		return nil, nil, fmt.Errorf("render %s: %w", source, err)
	}

	post := &Post{
		Source:      source,
		Slug:        SlugFrom(fm.Slug, source),
		Title:       TitleFrom(fm.Title, source),
		Draft:       fm.Draft,
		Categories:  cleanList(fm.Categories),
		Tags:        cleanList(fm.Tags),
		Description: strings.TrimSpace(fm.Description),
		Aliases:     cleanList(fm.Aliases),
		Body:        body,
		HTML:        template.HTML(rendered.HTML),
		PlainText:   rendered.PlainText,
		Links:       rendered.Links,
		Images:      rendered.Images,
	}
	post.ReadingTime = ReadingTime(post.PlainText)
	post.Headings = toHeadings(rendered.Headings)
	post.Route, post.OutputPath = routeFor(source, post.Slug)
	if isBundleIndex(source) {
		post.BundleDir = path.Dir(source)
		assets, err := s.bundleAssets(post.BundleDir)
		if err != nil {
			return nil, nil, err
		}
		post.Assets = assets
	}

	if fm.Date == "" {
		problems = append(problems, Problem{Source: source, Message: "missing date"})
	} else if date, err := ParseDate(fm.Date); err != nil {
		problems = append(problems, Problem{Source: source, Message: err.Error()})
	} else {
		post.Date = date
	}
	if fm.Lastmod != "" {
		if lastmod, err := ParseDate(fm.Lastmod); err != nil {
			problems = append(problems, Problem{Source: source, Message: err.Error()})
		} else {
			post.Lastmod = lastmod
		}
	}

	if head, ok := SplitSummary(body); ok {
		headRendered, err := s.renderer.Render(head)
		if err != nil {
			return nil, nil, fmt.Errorf("render summary %s: %w", source, err)
		}
		post.Summary = strings.TrimSpace(headRendered.PlainText)
	} else {
		post.Summary = Summarize(post.Description, post.PlainText)
	}

	return post, problems, nil
}

// bundleAssets lists non-markdown siblings of a bundle index file.
func (s *Store) bundleAssets(bundleDir string) ([]string, error) {
	root := filepath.Join(s.dir, filepath.FromSlash(bundleDir))
	assets := make([]string, 0, 4)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		assets = append(assets, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk bundle %s: %w", bundleDir, err)
	}
	sort.Strings(assets)
	return assets, nil
}

// Filter returns the publishable subset, newest first.
func Filter(posts []*Post, drafts, future bool, now time.Time) []*Post {
	out := make([]*Post, 0, len(posts))
	for _, p := range posts {
		if p.Draft && !drafts {
			continue
		}
		if !future && !p.Date.IsZero() && p.Date.After(now) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Category groups posts sharing one front matter category.
type Category struct {
	Name  string
	Slug  string
	Posts []*Post
}

// Taxonomy folds posts into categories ordered by name. The first spelling
// of a category wins; membership keys on the slug so casing variants merge.
func Taxonomy(posts []*Post) []Category {
	bySlug := map[string]*Category{}
	order := make([]string, 0, 8)
	for _, p := range posts {
		for _, name := range p.Categories {
			slug := Slugify(name)
			if slug == "" {
				continue
			}
			cat, ok := bySlug[slug]
			if !ok {
				cat = &Category{Name: name, Slug: slug}
				bySlug[slug] = cat
				order = append(order, slug)
			}
			cat.Posts = append(cat.Posts, p)
		}
	}
	sort.Strings(order)
	out := make([]Category, 0, len(order))
	for _, slug := range order {
		out = append(out, *bySlug[slug])
	}
	return out
}

func routeFor(source, slug string) (route, outputPath string) {
	dir := path.Dir(source)
	if isBundleIndex(source) {
		dir = path.Dir(dir)
	}
	if dir == "." {
		dir = ""
	}
	route = "/" + path.Join(dir, slug) + "/"
	if route == "//" {
		route = "/" + slug + "/"
	}
	outputPath = path.Join(strings.TrimPrefix(route, "/"), "index.html")
	return route, outputPath
}

func isBundleIndex(source string) bool {
	return strings.EqualFold(path.Base(source), "index.md") && path.Dir(source) != "."
}

func toHeadings(in []renderer.Heading) []Heading {
	out := make([]Heading, 0, len(in))
	for _, h := range in {
		out = append(out, Heading{ID: h.ID, Text: h.Text, Level: h.Level})
	}
	return out
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
