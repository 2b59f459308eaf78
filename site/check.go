package site

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pennadev/penna/config"
	"github.com/pennadev/penna/content"
)

// Severity ranks lint findings. Errors fail the check command.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is a single content-integrity finding.
type Issue struct {
	Severity Severity
	Source   string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Source, i.Message)
}

// HasErrors reports whether any issue is error-severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Check verifies the whole content tree: front matter shape, date
// parseability, route collisions, and that every internal link and image
// reference resolves to something the build will emit. Drafts are linted
// too, but their routes only count as link targets when the build would
// publish them.
func (s *Service) Check(ctx context.Context) ([]Issue, error) {
	posts, problems, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(problems))
	for _, p := range problems {
		issues = append(issues, Issue{Severity: SeverityError, Source: p.Source, Message: p.Message})
	}

	published := content.Filter(posts, s.cfg.BuildDrafts, s.cfg.BuildFuture, time.Now())
	routes := s.knownRoutes(published)

	seen := map[string]string{}
	for _, post := range posts {
		if other, dup := seen[post.Route]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Source:   post.Source,
				Message:  fmt.Sprintf("route %s collides with %s", post.Route, other),
			})
			continue
		}
		seen[post.Route] = post.Source
	}

	for _, post := range posts {
		for _, ref := range post.Images {
			if issue, bad := s.checkImageRef(post, ref); bad {
				issues = append(issues, issue)
			}
		}
		for _, ref := range post.Links {
			if issue, bad := s.checkLinkRef(post, ref, routes); bad {
				issues = append(issues, issue)
			}
		}
	}

	for _, entry := range s.cfg.SortedMenu() {
		target := strings.TrimSpace(entry.URL)
		if !strings.HasPrefix(target, "/") {
			continue
		}
		if !routes[normalizeRoute(target)] && !s.staticExists(target) {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Source:   "config",
				Message:  fmt.Sprintf("menu entry %q points at unknown route %s", entry.Identifier, entry.URL),
			})
		}
	}

	return issues, nil
}

// knownRoutes collects every route the build emits for the publishable set.
func (s *Service) knownRoutes(published []*content.Post) map[string]bool {
	routes := map[string]bool{
		"/":                  true,
		categoriesRoute:      true,
		"/sitemap.xml":       true,
		"/404.html":          true,
		"/search-index.json": true,
	}
	if s.cfg.WantsFormat(config.KindHome, config.FormatRSS) {
		routes["/index.xml"] = true
	}
	for _, post := range published {
		routes[post.Route] = true
		for _, alias := range post.Aliases {
			if r := aliasRoute(alias); r != "" {
				routes[r] = true
			}
		}
	}
	total := (len(published) + s.cfg.Paginate - 1) / s.cfg.Paginate
	for n := 2; n <= total; n++ {
		routes[pageRoute("/", n)] = true
	}
	taxonomyFeeds := s.cfg.WantsFormat(config.KindTaxonomy, config.FormatRSS)
	for _, cat := range content.Taxonomy(published) {
		base := categoriesRoute + cat.Slug + "/"
		routes[base] = true
		if taxonomyFeeds {
			routes[base+"index.xml"] = true
		}
		catTotal := (len(cat.Posts) + s.cfg.Paginate - 1) / s.cfg.Paginate
		for n := 2; n <= catTotal; n++ {
			routes[pageRoute(base, n)] = true
		}
	}
	return routes
}

func (s *Service) checkImageRef(post *content.Post, ref string) (Issue, bool) {
	kind := classifyRef(ref)
	switch kind {
	case refExternal, refFragment:
		return Issue{}, false
	case refRooted:
		if s.staticExists(ref) {
			return Issue{}, false
		}
		return Issue{
			Severity: SeverityError,
			Source:   post.Source,
			Message:  fmt.Sprintf("image %s not found under %s", ref, s.cfg.StaticDir),
		}, true
	default: // relative
		if post.BundleDir != "" && bundleHasAsset(post.Assets, ref) {
			return Issue{}, false
		}
		return Issue{
			Severity: SeverityError,
			Source:   post.Source,
			Message:  fmt.Sprintf("image %s does not resolve to a bundle asset", ref),
		}, true
	}
}

func (s *Service) checkLinkRef(post *content.Post, ref string, routes map[string]bool) (Issue, bool) {
	kind := classifyRef(ref)
	switch kind {
	case refExternal, refFragment:
		return Issue{}, false
	case refRooted:
		if routes[normalizeRoute(ref)] || s.staticExists(ref) {
			return Issue{}, false
		}
		return Issue{
			Severity: SeverityError,
			Source:   post.Source,
			Message:  fmt.Sprintf("link %s does not resolve to a known page or asset", ref),
		}, true
	default:
		// Relative links resolve against the post's own route.
		resolved := path.Join(strings.TrimSuffix(post.Route, "/"), stripRefNoise(ref))
		if !strings.HasSuffix(resolved, "/") && path.Ext(resolved) == "" {
			resolved += "/"
		}
		if routes[normalizeRoute(resolved)] || s.staticExists(resolved) {
			return Issue{}, false
		}
		if post.BundleDir != "" && bundleHasAsset(post.Assets, ref) {
			return Issue{}, false
		}
		return Issue{
			Severity: SeverityError,
			Source:   post.Source,
			Message:  fmt.Sprintf("link %s does not resolve to a known page or asset", ref),
		}, true
	}
}

type refKind int

const (
	refExternal refKind = iota
	refFragment
	refRooted
	refRelative
)

func classifyRef(ref string) refKind {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return refFragment
	}
	if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "data:") || strings.HasPrefix(trimmed, "mailto:") {
		return refExternal
	}
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Scheme != "" {
		return refExternal
	}
	if strings.HasPrefix(trimmed, "/") {
		return refRooted
	}
	return refRelative
}

// stripRefNoise removes fragments and query strings from a reference.
func stripRefNoise(ref string) string {
	if idx := strings.IndexAny(ref, "#?"); idx >= 0 {
		ref = ref[:idx]
	}
	return ref
}

func normalizeRoute(ref string) string {
	cleaned := path.Clean("/" + stripRefNoise(ref))
	if cleaned == "/" {
		return "/"
	}
	if path.Ext(cleaned) == "" {
		cleaned += "/"
	}
	return cleaned
}

// staticExists resolves a rooted reference against the static trees.
func (s *Service) staticExists(ref string) bool {
	rel := strings.TrimPrefix(stripRefNoise(ref), "/")
	if rel == "" {
		return false
	}
	base := s.cfg.BasePath()
	if base != "/" {
		rel = strings.TrimPrefix("/"+rel, base)
		rel = strings.TrimPrefix(rel, "/")
	}
	candidates := []string{s.cfg.StaticDir}
	if themeStatic := s.cfg.ThemeStaticDir(); themeStatic != "" {
		candidates = append(candidates, themeStatic)
	}
	for _, dir := range candidates {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

func bundleHasAsset(assets []string, ref string) bool {
	needle := path.Clean(stripRefNoise(ref))
	for _, asset := range assets {
		if asset == needle {
			return true
		}
	}
	return false
}
