package views

import "time"

// SiteConfig holds site-wide settings populated from environment variables.
// Every handler passes this to templates so nothing is hardcoded.
type SiteConfig struct {
	Name        string // SITE_NAME  (default "pagecraft")
	URL         string // SITE_URL   (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	NoIndex     bool
}

// DocumentRow is one line of the admin dashboard.
type DocumentRow struct {
	ID        string
	Title     string
	Kind      string
	Slug      string
	Active    bool
	UpdatedAt time.Time
	Views     int
	ShareURL  string
}

// Dashboard is everything the admin dashboard renders.
type Dashboard struct {
	Documents []DocumentRow
	Templates []string
	Message   string
	CSRFToken string
}
