package server

import (
	"crypto/subtle"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWebhookRebuild regenerates the site on demand, typically from a
// post-receive hook on the blog's git remote.
func (s *Server) handleWebhookRebuild(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Webhook.Enabled {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.authorizeWebhook(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := s.doRebuild(r.Context()); err != nil {
		s.logger.Error("webhook rebuild", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]string{"status": "rebuilt"}
	// Post-receive hooks want to confirm which revision got deployed.
	if head := s.svc.HeadRevision(r.Context()); head != "" {
		resp["commit"] = head
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) authorizeWebhook(r *http.Request) bool {
	secret := strings.TrimSpace(s.cfg.Webhook.Secret)
	if secret == "" {
		return true
	}
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

func (s *Server) handleSearchIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	payload := s.svc.SearchIndex()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	_, _ = w.Write(payload)
}

// handlePage serves the generated output tree, mapping pretty URLs onto
// directory indexes and falling back to the themed 404 page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	target := s.svc.StaticDocumentPath(r.URL.Path)
	if !isWithin(s.cfg.OutputDir, target) {
		s.serveNotFound(w, r)
		return
	}
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		s.serveNotFound(w, r)
		return
	}
	http.ServeFile(w, r, target)
}

func (s *Server) serveNotFound(w http.ResponseWriter, r *http.Request) {
	page, err := os.ReadFile(s.svc.NotFoundDocumentPath())
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(page)
}

func isWithin(base, target string) bool {
	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	return true
}
