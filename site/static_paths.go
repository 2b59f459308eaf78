package site

import (
	"path"
	"path/filepath"
	"strings"
)

// StaticDocumentPath resolves the on-disk file corresponding to a request
// path. Pretty URLs map onto their directory index.
func (s *Service) StaticDocumentPath(requestPath string) string {
	route := sanitizeRoute(requestPath)

	base := s.cfg.BasePath()
	if base != "/" && strings.HasPrefix(route, base) {
		route = "/" + strings.TrimPrefix(strings.TrimPrefix(route, base), "/")
	}

	if route == "/" {
		return filepath.Join(s.cfg.OutputDir, "index.html")
	}

	rel := strings.TrimPrefix(route, "/")
	if strings.HasSuffix(requestPath, "/") || path.Ext(rel) == "" {
		return filepath.Join(s.cfg.OutputDir, filepath.FromSlash(rel), "index.html")
	}
	return filepath.Join(s.cfg.OutputDir, filepath.FromSlash(rel))
}

// NotFoundDocumentPath returns the static 404 page path.
func (s *Service) NotFoundDocumentPath() string {
	return filepath.Join(s.cfg.OutputDir, "404.html")
}

func sanitizeRoute(input string) string {
	route := strings.TrimSpace(input)
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	cleaned := path.Clean(route)
	if cleaned == "." {
		cleaned = "/"
	}
	return cleaned
}
