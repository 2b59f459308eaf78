package config

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// MenuEntry describes a single navigation item rendered by the layout.
type MenuEntry struct {
	Name       string `toml:"name"`
	Identifier string `toml:"identifier"`
	URL        string `toml:"url"`
	Pre        string `toml:"pre"`
	Weight     int    `toml:"weight"`
}

// Menu groups named menus. Only "main" is rendered by the default layout,
// but additional menus pass through to templates untouched.
type Menu struct {
	Main []MenuEntry `toml:"main"`
}

// Params is the theme parameter block.
type Params struct {
	Description string            `toml:"description"`
	Author      string            `toml:"author"`
	ShowHeader  bool              `toml:"showHeader"`
	ShowSidebar bool              `toml:"showSidebar"`
	ShowFooter  bool              `toml:"showFooter"`
	Comments    string            `toml:"comments"`
	Shortname   string            `toml:"shortname"`
	Social      map[string]string `toml:"social"`
}

// WebhookConfig guards the rebuild endpoint exposed in serve mode.
type WebhookConfig struct {
	Enabled bool   `toml:"enabled"`
	Secret  string `toml:"secret"`
}

// Config encapsulates site metadata, directory layout, and serve-mode options.
type Config struct {
	BaseURL         string              `toml:"baseURL"`
	LanguageCode    string              `toml:"languageCode"`
	Title           string              `toml:"title"`
	Theme           string              `toml:"theme"`
	Paginate        int                 `toml:"paginate"`
	GoogleAnalytics string              `toml:"googleAnalytics"`
	ContentDir      string              `toml:"contentDir"`
	StaticDir       string              `toml:"staticDir"`
	OutputDir       string              `toml:"outputDir"`
	BuildDrafts     bool                `toml:"buildDrafts"`
	BuildFuture     bool                `toml:"buildFuture"`
	Minify          bool                `toml:"minify"`
	EnableGitInfo   bool                `toml:"enableGitInfo"`
	Listen          string              `toml:"listen"`
	EnableTLS       bool                `toml:"enableTLS"`
	TLSCert         string              `toml:"tlsCert"`
	TLSKey          string              `toml:"tlsKey"`
	LogLevel        string              `toml:"logLevel"`
	Outputs         map[string][]string `toml:"outputs"`
	Params          Params              `toml:"params"`
	Menu            Menu                `toml:"menu"`
	Webhook         WebhookConfig       `toml:"webhook"`

	baseURL *url.URL
}

// Page kinds accepted in the outputs table.
const (
	KindHome     = "home"
	KindPage     = "page"
	KindTaxonomy = "taxonomy"
)

// Output formats accepted in the outputs table.
const (
	FormatHTML = "HTML"
	FormatRSS  = "RSS"
)

var knownCommentProviders = map[string]struct{}{
	"":           {},
	"disqus":     {},
	"utterances": {},
}

// Load reads configuration from disk and applies sane defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		c.Title = "Untitled Blog"
	}
	if c.LanguageCode == "" {
		c.LanguageCode = "en-us"
	}
	if c.Paginate == 0 {
		c.Paginate = 10
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.StaticDir == "" {
		c.StaticDir = "static"
	}
	if c.OutputDir == "" {
		c.OutputDir = "public"
	}
	if c.Listen == "" {
		c.Listen = ":1313"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Outputs == nil {
		c.Outputs = map[string][]string{}
	}
	if _, ok := c.Outputs[KindHome]; !ok {
		c.Outputs[KindHome] = []string{FormatHTML, FormatRSS}
	}
	if _, ok := c.Outputs[KindTaxonomy]; !ok {
		c.Outputs[KindTaxonomy] = []string{FormatHTML, FormatRSS}
	}
	if _, ok := c.Outputs[KindPage]; !ok {
		c.Outputs[KindPage] = []string{FormatHTML}
	}

	c.BaseURL = strings.TrimSpace(c.BaseURL)
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:1313/"
	}
	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("baseURL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("baseURL %q must be absolute", c.BaseURL)
	}
	c.baseURL = parsed

	c.Webhook.Secret = strings.TrimSpace(c.Webhook.Secret)
	return nil
}

func (c *Config) validate() error {
	if c.Paginate < 1 {
		return fmt.Errorf("paginate must be positive, got %d", c.Paginate)
	}
	if c.EnableTLS {
		if c.TLSCert == "" || c.TLSKey == "" {
			return fmt.Errorf("tls enabled but certificates missing")
		}
	}
	if _, ok := knownCommentProviders[strings.ToLower(c.Params.Comments)]; !ok {
		return fmt.Errorf("unknown comment provider %q", c.Params.Comments)
	}
	if c.Params.Comments != "" && strings.TrimSpace(c.Params.Shortname) == "" {
		return fmt.Errorf("comment provider %q requires params.shortname", c.Params.Comments)
	}
	if c.Webhook.Enabled {
		if n := len(c.Webhook.Secret); n < 8 || n > 128 {
			return fmt.Errorf("webhook secret must be between 8 and 128 characters")
		}
	}
	for kind, formats := range c.Outputs {
		switch kind {
		case KindHome, KindPage, KindTaxonomy:
		default:
			return fmt.Errorf("outputs: unknown page kind %q", kind)
		}
		for _, format := range formats {
			switch format {
			case FormatHTML, FormatRSS:
			default:
				return fmt.Errorf("outputs.%s: unknown format %q", kind, format)
			}
		}
	}
	return c.validateMenu()
}

// validateMenu enforces the two invariants the layout relies on: identifiers
// address entries and weights order them, so both must be unambiguous.
func (c *Config) validateMenu() error {
	identifiers := map[string]struct{}{}
	weights := map[int]string{}
	for _, entry := range c.Menu.Main {
		id := strings.TrimSpace(entry.Identifier)
		if id == "" {
			return fmt.Errorf("menu entry %q missing identifier", entry.Name)
		}
		if _, dup := identifiers[id]; dup {
			return fmt.Errorf("duplicate menu identifier %q", id)
		}
		identifiers[id] = struct{}{}
		if other, dup := weights[entry.Weight]; dup {
			return fmt.Errorf("menu entries %q and %q share weight %d", other, id, entry.Weight)
		}
		weights[entry.Weight] = id
		if strings.TrimSpace(entry.URL) == "" {
			return fmt.Errorf("menu entry %q missing url", id)
		}
	}
	return nil
}

// LayoutDir resolves the template directory, honoring the theme setting.
func (c *Config) LayoutDir() string {
	if c.Theme != "" {
		return filepath.Join("themes", c.Theme, "layouts")
	}
	return "layouts"
}

// ThemeStaticDir resolves the theme's own asset directory, or "" without a theme.
func (c *Config) ThemeStaticDir() string {
	if c.Theme == "" {
		return ""
	}
	return filepath.Join("themes", c.Theme, "static")
}

// BasePath returns the path component of baseURL, always with a leading slash.
func (c *Config) BasePath() string {
	p := "/"
	if c.baseURL != nil && c.baseURL.Path != "" {
		p = c.baseURL.Path
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// AbsURL joins a site-rooted route onto baseURL for feeds and sitemaps.
func (c *Config) AbsURL(route string) string {
	if c.baseURL == nil {
		return route
	}
	joined := *c.baseURL
	joined.Path = path.Join(c.baseURL.Path, route)
	if strings.HasSuffix(route, "/") && joined.Path != "/" {
		joined.Path += "/"
	}
	return joined.String()
}

// WantsFormat reports whether a page kind should emit the given format.
func (c *Config) WantsFormat(kind, format string) bool {
	for _, f := range c.Outputs[kind] {
		if f == format {
			return true
		}
	}
	return false
}

// SortedMenu returns main menu entries ordered by weight.
func (c *Config) SortedMenu() []MenuEntry {
	entries := append([]MenuEntry(nil), c.Menu.Main...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Weight < entries[j].Weight })
	return entries
}
