package site

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pennadev/penna/config"
	"github.com/pennadev/penna/content"
	"github.com/pennadev/penna/gitutil"
	"github.com/pennadev/penna/renderer"
	"github.com/pennadev/penna/templatex"
)

// Service orchestrates content loading, rendering, and site generation.
type Service struct {
	cfg       *config.Config
	templates *templatex.Engine
	renderer  *renderer.Renderer
	store     *content.Store
	git       *gitutil.Repository
	search    *SearchCatalog
	logger    *slog.Logger
}

// NewService constructs a Service instance. The git repository is optional
// and only consulted when last-modified stamping is enabled.
func NewService(cfg *config.Config, templates *templatex.Engine, logger *slog.Logger) *Service {
	rend := renderer.New(cfg.Minify)
	svc := &Service{
		cfg:       cfg,
		templates: templates,
		renderer:  rend,
		store:     content.NewStore(cfg.ContentDir, rend),
		search:    newSearchCatalog(),
		logger:    logger,
	}
	if cfg.EnableGitInfo {
		repo, err := gitutil.Open("", cfg.ContentDir, 0)
		if err != nil {
			logger.Warn("git info disabled", "error", err)
		} else {
			svc.git = repo
		}
	}
	return svc
}

// SetTemplates swaps in a freshly loaded template set. Callers must not
// run it concurrently with a build.
func (s *Service) SetTemplates(templates *templatex.Engine) {
	s.templates = templates
}

// Renderer exposes the markdown renderer for preview endpoints.
func (s *Service) Renderer() *renderer.Renderer {
	return s.renderer
}

// SearchIndex returns a snapshot of the current search dataset.
func (s *Service) SearchIndex() json.RawMessage {
	payload := s.search.Snapshot()
	if len(payload) == 0 {
		return append(json.RawMessage(nil), emptySearchIndexJSON...)
	}
	return payload
}

// loadPublishable loads the tree and filters it down to the build set.
func (s *Service) loadPublishable(ctx context.Context) ([]*content.Post, []*content.Post, error) {
	posts, problems, err := s.store.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range problems {
		s.logger.Warn("content", "source", p.Source, "problem", p.Message)
	}
	s.stampGitInfo(ctx, posts)
	published := content.Filter(posts, s.cfg.BuildDrafts, s.cfg.BuildFuture, time.Now())
	return posts, published, nil
}

// stampGitInfo fills Lastmod and commit hashes from the working copy's
// history. Explicit front matter lastmod always wins.
func (s *Service) stampGitInfo(ctx context.Context, posts []*content.Post) {
	for _, p := range posts {
		if s.git != nil {
			full := filepath.Join(s.store.Dir(), filepath.FromSlash(p.Source))
			if info, err := s.git.FileLog(ctx, full); err == nil {
				p.GitHash = info.Hash
				if p.Lastmod.IsZero() {
					p.Lastmod = info.CommittedAt
				}
			}
		}
		if p.Lastmod.IsZero() {
			p.Lastmod = p.Date
		}
	}
}

// HeadRevision reports the content checkout's HEAD commit, or "" when git
// info is disabled or unavailable.
func (s *Service) HeadRevision(ctx context.Context) string {
	if s.git == nil {
		return ""
	}
	hash, err := s.git.HeadHash(ctx)
	if err != nil {
		s.logger.Warn("git head", "error", err)
		return ""
	}
	return hash
}

// siteData assembles the layout's site block, marking the active menu entry.
func (s *Service) siteData(activeRoute string) templatex.Site {
	menu := make([]templatex.MenuItem, 0, len(s.cfg.Menu.Main))
	for _, entry := range s.cfg.SortedMenu() {
		menu = append(menu, templatex.MenuItem{
			Name:   entry.Name,
			URL:    entry.URL,
			Pre:    template.HTML(entry.Pre),
			Active: menuEntryActive(entry.URL, activeRoute),
		})
	}
	return templatex.Site{
		Title:           s.cfg.Title,
		BaseURL:         s.cfg.BaseURL,
		BasePath:        s.cfg.BasePath(),
		LanguageCode:    s.cfg.LanguageCode,
		Description:     s.cfg.Params.Description,
		Author:          s.cfg.Params.Author,
		GoogleAnalytics: s.cfg.GoogleAnalytics,
		ShowHeader:      s.cfg.Params.ShowHeader,
		ShowSidebar:     s.cfg.Params.ShowSidebar,
		ShowFooter:      s.cfg.Params.ShowFooter,
		Comments:        s.cfg.Params.Comments,
		Shortname:       s.cfg.Params.Shortname,
		Social:          s.cfg.Params.Social,
		Menu:            menu,
		SearchIndexURL:  path.Join(s.cfg.BasePath(), "search-index.json"),
	}
}

func menuEntryActive(entryURL, activeRoute string) bool {
	entry := strings.TrimSuffix(strings.TrimSpace(entryURL), "/")
	active := strings.TrimSuffix(activeRoute, "/")
	if entry == "" {
		return active == ""
	}
	if !strings.HasPrefix(entry, "/") {
		return false
	}
	return entry == active || strings.HasPrefix(active, entry+"/")
}

func (s *Service) pageTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if title == "" {
		return s.cfg.Title
	}
	return fmt.Sprintf("%s - %s", title, s.cfg.Title)
}
