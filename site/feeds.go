package site

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/feeds"

	"github.com/pennadev/penna/config"
	"github.com/pennadev/penna/content"
)

const feedItemLimit = 20

func (s *Service) writeFeeds(baseDir string, published []*content.Post, categories []content.Category) error {
	if s.cfg.WantsFormat(config.KindHome, config.FormatRSS) {
		if err := s.writeFeed(baseDir, homeFeedOutput, s.cfg.Title, s.cfg.AbsURL("/"), published); err != nil {
			return err
		}
	}
	if !s.cfg.WantsFormat(config.KindTaxonomy, config.FormatRSS) {
		return nil
	}
	for _, cat := range categories {
		out := filepath.Join("categories", cat.Slug, "index.xml")
		title := fmt.Sprintf("%s - %s", cat.Name, s.cfg.Title)
		link := s.cfg.AbsURL(categoriesRoute + cat.Slug + "/")
		if err := s.writeFeed(baseDir, out, title, link, cat.Posts); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeFeed(baseDir, outputPath, title, link string, posts []*content.Post) error {
	feed := &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: link},
		Description: s.cfg.Params.Description,
		Author:      &feeds.Author{Name: s.cfg.Params.Author},
	}
	if len(posts) > 0 {
		feed.Updated = posts[0].Lastmod
		feed.Created = posts[len(posts)-1].Date
	}

	limit := min(len(posts), feedItemLimit)
	for _, p := range posts[:limit] {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       p.Title,
			Link:        &feeds.Link{Href: s.cfg.AbsURL(p.Route)},
			Id:          s.cfg.AbsURL(p.Route),
			Description: p.Summary,
			Created:     p.Date,
			Updated:     p.Lastmod,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return fmt.Errorf("render feed %s: %w", outputPath, err)
	}
	payload, err := s.renderer.MinifyXML([]byte(rss))
	if err != nil {
		return err
	}
	target := filepath.Join(baseDir, filepath.FromSlash(outputPath))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(target, payload, 0o644); err != nil {
		return fmt.Errorf("write feed %s: %w", outputPath, err)
	}
	return nil
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	Lastmod string `xml:"lastmod,omitempty"`
}

type sitemapSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

func (s *Service) writeSitemap(baseDir string, published []*content.Post, categories []content.Category) error {
	set := sitemapSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs, sitemapURL{Loc: s.cfg.AbsURL("/")})
	set.URLs = append(set.URLs, sitemapURL{Loc: s.cfg.AbsURL(categoriesRoute)})
	for _, cat := range categories {
		set.URLs = append(set.URLs, sitemapURL{Loc: s.cfg.AbsURL(categoriesRoute + cat.Slug + "/")})
	}
	for _, p := range published {
		entry := sitemapURL{Loc: s.cfg.AbsURL(p.Route)}
		if !p.Lastmod.IsZero() {
			entry.Lastmod = p.Lastmod.UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, entry)
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sitemap: %w", err)
	}
	payload := append([]byte(xml.Header), body...)
	payload, err = s.renderer.MinifyXML(payload)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(baseDir, "sitemap.xml"), payload, 0o644); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	return nil
}
