package site

import (
	"fmt"
	"path"

	"github.com/pennadev/penna/config"
	"github.com/pennadev/penna/content"
	"github.com/pennadev/penna/templatex"
)

const (
	categoriesRoute = "/categories/"
	homeFeedOutput  = "index.xml"
)

func (s *Service) toPage(p *content.Post) *templatex.Page {
	categories := make([]templatex.CategoryRef, 0, len(p.Categories))
	for _, name := range p.Categories {
		categories = append(categories, templatex.CategoryRef{
			Name: name,
			URL:  categoryRoute(name),
		})
	}
	sections := make([]templatex.TOCEntry, 0, len(p.Headings))
	for _, h := range p.Headings {
		sections = append(sections, templatex.TOCEntry{ID: h.ID, Text: h.Text, Level: h.Level})
	}
	gitShort := p.GitHash
	if len(gitShort) > 12 {
		gitShort = gitShort[:12]
	}
	return &templatex.Page{
		Title:       p.Title,
		Route:       p.Route,
		Permalink:   s.cfg.AbsURL(p.Route),
		Date:        p.Date,
		Lastmod:     p.Lastmod,
		Draft:       p.Draft,
		Categories:  categories,
		Tags:        p.Tags,
		Summary:     p.Summary,
		ReadingTime: p.ReadingTime,
		ContentHTML: p.HTML,
		Sections:    sections,
		GitHash:     p.GitHash,
		GitShort:    gitShort,
	}
}

func (s *Service) postPageData(p *content.Post) *templatex.PageData {
	page := s.toPage(p)
	return &templatex.PageData{
		Site:            s.siteData(p.Route),
		Page:            page,
		ContentTemplate: templatex.PostContentTemplate,
		PageTitle:       s.pageTitle(p.Title),
		RequestedPath:   p.Route,
		FeedURL:         s.feedURL(),
	}
}

// listPage is one window of a paginated listing.
type listPage struct {
	Route      string
	OutputPath string
	Title      string
	Posts      []*content.Post
	Pagination *templatex.Pagination
}

// paginate cuts posts into list pages rooted at baseRoute. Page one lives at
// the base route itself, later pages under page/N/.
func paginate(baseRoute, title string, posts []*content.Post, perPage int) []listPage {
	if perPage < 1 {
		perPage = 1
	}
	total := (len(posts) + perPage - 1) / perPage
	if total == 0 {
		total = 1
	}

	pageURLs := make([]string, total)
	for i := range pageURLs {
		pageURLs[i] = pageRoute(baseRoute, i+1)
	}

	pages := make([]listPage, 0, total)
	for n := 1; n <= total; n++ {
		start := (n - 1) * perPage
		end := min(start+perPage, len(posts))
		window := posts[start:end]

		pagination := &templatex.Pagination{
			Current:  n,
			Total:    total,
			PageURLs: pageURLs,
		}
		if n > 1 {
			pagination.PrevURL = pageURLs[n-2]
		}
		if n < total {
			pagination.NextURL = pageURLs[n]
		}

		route := pageRoute(baseRoute, n)
		pages = append(pages, listPage{
			Route:      route,
			OutputPath: path.Join(routeOutputDir(route), "index.html"),
			Title:      title,
			Posts:      window,
			Pagination: pagination,
		})
	}
	return pages
}

func (s *Service) listPageData(lp listPage) *templatex.PageData {
	pages := make([]*templatex.Page, 0, len(lp.Posts))
	for _, p := range lp.Posts {
		pages = append(pages, s.toPage(p))
	}
	title := lp.Title
	if lp.Pagination != nil && lp.Pagination.Current > 1 {
		title = fmt.Sprintf("%s (page %d)", lp.Title, lp.Pagination.Current)
	}
	pageTitle := s.pageTitle(title)
	if lp.Route == "/" && (lp.Pagination == nil || lp.Pagination.Current == 1) {
		pageTitle = s.cfg.Title
	}
	return &templatex.PageData{
		Site:            s.siteData(lp.Route),
		Posts:           pages,
		Pagination:      lp.Pagination,
		ContentTemplate: templatex.ListContentTemplate,
		PageTitle:       pageTitle,
		RequestedPath:   lp.Route,
		FeedURL:         s.feedURL(),
	}
}

func (s *Service) termsPageData(categories []content.Category) *templatex.PageData {
	groups := make([]templatex.CategoryGroup, 0, len(categories))
	for _, cat := range categories {
		groups = append(groups, templatex.CategoryGroup{
			Name:  cat.Name,
			URL:   categoriesRoute + cat.Slug + "/",
			Count: len(cat.Posts),
		})
	}
	return &templatex.PageData{
		Site:            s.siteData(categoriesRoute),
		Categories:      groups,
		ContentTemplate: templatex.TermsContentTemplate,
		PageTitle:       s.pageTitle("Categories"),
		RequestedPath:   categoriesRoute,
		FeedURL:         s.feedURL(),
	}
}

func (s *Service) notFoundPageData(requestedPath string) *templatex.PageData {
	return &templatex.PageData{
		Site:            s.siteData(""),
		ContentTemplate: templatex.NotFoundContentTemplate,
		PageTitle:       s.pageTitle("404 - Not found"),
		RequestedPath:   requestedPath,
		FeedURL:         s.feedURL(),
	}
}

func (s *Service) feedURL() string {
	if !s.cfg.WantsFormat(config.KindHome, config.FormatRSS) {
		return ""
	}
	return path.Join(s.cfg.BasePath(), homeFeedOutput)
}

func categoryRoute(name string) string {
	return categoriesRoute + content.Slugify(name) + "/"
}

func pageRoute(baseRoute string, n int) string {
	if n <= 1 {
		return baseRoute
	}
	return path.Join(baseRoute, "page", fmt.Sprintf("%d", n)) + "/"
}

// routeOutputDir maps a pretty route onto its output directory.
func routeOutputDir(route string) string {
	trimmed := path.Clean("/" + route)
	if trimmed == "/" {
		return "."
	}
	return trimmed[1:]
}
