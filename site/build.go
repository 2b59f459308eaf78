package site

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pennadev/penna/content"
	"github.com/pennadev/penna/fsutil"
	"github.com/pennadev/penna/templatex"
)

// BuildStatic renders the entire site into the output directory. The build
// lands in a temp dir first and is swapped in atomically so a serving
// process never sees a half-written tree.
func (s *Service) BuildStatic(ctx context.Context) error {
	finalDir := s.cfg.OutputDir
	parent := filepath.Dir(finalDir)
	if parent == "" {
		parent = "."
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("ensure output parent: %w", err)
	}

	tempDir, err := os.MkdirTemp(parent, ".__build-")
	if err != nil {
		return fmt.Errorf("create temp output dir: %w", err)
	}
	cleanTemp := true
	defer func() {
		if cleanTemp && tempDir != "" {
			_ = os.RemoveAll(tempDir)
		}
	}()

	if err := s.buildInto(ctx, tempDir); err != nil {
		return err
	}

	backupDir := finalDir + ".old"
	if err := os.RemoveAll(backupDir); err != nil {
		return fmt.Errorf("clean backup dir: %w", err)
	}

	if err := os.Rename(finalDir, backupDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotate old output: %w", err)
	}

	if err := os.Rename(tempDir, finalDir); err != nil {
		_ = os.Rename(backupDir, finalDir)
		return fmt.Errorf("activate new output: %w", err)
	}

	_ = os.RemoveAll(backupDir)
	cleanTemp = false
	tempDir = ""
	return nil
}

func (s *Service) buildInto(ctx context.Context, baseDir string) error {
	_, published, err := s.loadPublishable(ctx)
	if err != nil {
		return err
	}

	if err := s.copyStaticTrees(baseDir); err != nil {
		return err
	}
	if err := s.copyBundleAssets(baseDir, published); err != nil {
		return err
	}

	for _, post := range published {
		if err := s.writeTemplated(baseDir, post.OutputPath, s.postPageData(post)); err != nil {
			return fmt.Errorf("write %s: %w", post.Route, err)
		}
	}
	if err := s.writeAliases(baseDir, published); err != nil {
		return err
	}

	for _, lp := range paginate("/", s.cfg.Title, published, s.cfg.Paginate) {
		if err := s.writeTemplated(baseDir, lp.OutputPath, s.listPageData(lp)); err != nil {
			return fmt.Errorf("write list %s: %w", lp.Route, err)
		}
	}

	categories := content.Taxonomy(published)
	if err := s.writeTemplated(baseDir, "categories/index.html", s.termsPageData(categories)); err != nil {
		return fmt.Errorf("write categories: %w", err)
	}
	for _, cat := range categories {
		base := categoriesRoute + cat.Slug + "/"
		for _, lp := range paginate(base, cat.Name, cat.Posts, s.cfg.Paginate) {
			if err := s.writeTemplated(baseDir, lp.OutputPath, s.listPageData(lp)); err != nil {
				return fmt.Errorf("write category %s: %w", cat.Slug, err)
			}
		}
	}

	if err := s.writeFeeds(baseDir, published, categories); err != nil {
		return err
	}
	if err := s.writeSitemap(baseDir, published, categories); err != nil {
		return err
	}
	if err := s.writeTemplated(baseDir, "404.html", s.notFoundPageData("")); err != nil {
		return fmt.Errorf("write 404: %w", err)
	}

	indexJSON, err := buildSearchIndex(published)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(baseDir, "search-index.json"), indexJSON, 0o644); err != nil {
		return fmt.Errorf("write search index: %w", err)
	}
	s.search.Update(indexJSON)

	return nil
}

func (s *Service) copyStaticTrees(baseDir string) error {
	if themeStatic := s.cfg.ThemeStaticDir(); themeStatic != "" {
		if _, err := os.Stat(themeStatic); err == nil {
			if err := fsutil.CopyTree(themeStatic, baseDir); err != nil {
				return fmt.Errorf("copy theme static: %w", err)
			}
		}
	}
	if _, err := os.Stat(s.cfg.StaticDir); err == nil {
		if err := fsutil.CopyTree(s.cfg.StaticDir, baseDir); err != nil {
			return fmt.Errorf("copy static: %w", err)
		}
	}
	if s.templates.StaticDir != "" {
		dst := filepath.Join(baseDir, "theme")
		if err := fsutil.CopyTree(s.templates.StaticDir, dst); err != nil {
			return fmt.Errorf("copy layout assets: %w", err)
		}
	}
	return nil
}

// copyBundleAssets places page-bundle files next to the generated post page,
// so relative image references keep working.
func (s *Service) copyBundleAssets(baseDir string, posts []*content.Post) error {
	for _, post := range posts {
		if post.BundleDir == "" {
			continue
		}
		outDir := filepath.Dir(filepath.Join(baseDir, filepath.FromSlash(post.OutputPath)))
		for _, asset := range post.Assets {
			src := filepath.Join(s.store.Dir(), filepath.FromSlash(post.BundleDir), filepath.FromSlash(asset))
			dst := filepath.Join(outDir, filepath.FromSlash(asset))
			if err := fsutil.CopyFile(src, dst); err != nil {
				return fmt.Errorf("copy bundle asset %s: %w", asset, err)
			}
		}
	}
	return nil
}

// writeAliases emits meta-refresh stubs for front matter aliases so old URLs
// keep resolving after a post moves.
func (s *Service) writeAliases(baseDir string, posts []*content.Post) error {
	for _, post := range posts {
		for _, alias := range post.Aliases {
			route := aliasRoute(alias)
			if route == "" {
				continue
			}
			target := s.cfg.AbsURL(post.Route)
			html := fmt.Sprintf(aliasPage, target, target)
			out := filepath.Join(baseDir, filepath.FromSlash(routeOutputDir(route)), "index.html")
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
				return fmt.Errorf("write alias %s: %w", alias, err)
			}
		}
	}
	return nil
}

const aliasPage = `<!DOCTYPE html><html><head><title>Moved</title><link rel="canonical" href="%s"><meta http-equiv="refresh" content="0; url=%s"></head></html>`

// aliasRoute normalizes a front matter alias into a site-rooted route.
func aliasRoute(alias string) string {
	segments := strings.Split(strings.Trim(strings.TrimSpace(alias), "/"), "/")
	cleaned := make([]string, 0, len(segments))
	for _, seg := range segments {
		if slug := content.Slugify(seg); slug != "" {
			cleaned = append(cleaned, slug)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "/" + strings.Join(cleaned, "/") + "/"
}

func (s *Service) writeTemplated(baseDir, outputPath string, data *templatex.PageData) error {
	var buf bytes.Buffer
	if err := s.templates.Render(&buf, data); err != nil {
		return err
	}
	minified, err := s.renderer.MinifyHTML(buf.Bytes())
	if err != nil {
		return err
	}
	target := filepath.Join(baseDir, filepath.FromSlash(outputPath))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, minified, 0o644)
}
