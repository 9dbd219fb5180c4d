package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/eringen/pagecraft/builder"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PathEscape wraps url.PathEscape for use in templ expressions.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// PublicURL is the canonical address of a published document.
func PublicURL(cfg SiteConfig, slug string) string {
	return buildURL(cfg.URL, "p", slug)
}

// WebPageJsonLD produces a Schema.org WebPage JSON-LD block for a document.
func WebPageJsonLD(cfg SiteConfig, doc *builder.Document) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebPage",
		"name":     doc.Title,
		"url":      PublicURL(cfg, doc.Slug),
		"isPartOf": map[string]string{
			"@type": "WebSite",
			"name":  cfg.Name,
			"url":   buildURL(cfg.URL),
		},
	}
	if !doc.UpdatedAt.IsZero() {
		data["dateModified"] = doc.UpdatedAt.UTC().Format("2006-01-02")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Summary returns the first text found in doc, for meta descriptions.
func Summary(doc *builder.Document, max int) string {
	var out string
	doc.Walk(func(el *builder.Element, _ int) bool {
		switch c := el.Content.(type) {
		case *builder.ProfileContent:
			out = c.Subtitle
		case *builder.HeaderContent:
			out = c.Subtitle
		case *builder.TextContent:
			out = c.Body
		case *builder.CardContent:
			out = c.Body
		}
		return out == ""
	})
	out = strings.Join(strings.Fields(out), " ")
	if r := []rune(out); max > 0 && len(r) > max {
		out = string(r[:max-1]) + "…"
	}
	return out
}
