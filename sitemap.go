package pagecraft

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pagecraft/builder"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// renderSitemap lists every public web document. Email templates are not
// pages and are left out.
func (a *App) renderSitemap(c echo.Context, docs []*builder.Document) error {
	var urls []sitemapURL
	for _, d := range docs {
		if d.Kind == builder.DocumentEmail {
			continue
		}
		u := sitemapURL{Loc: a.CanonicalURL(d)}
		if !d.UpdatedAt.IsZero() {
			u.LastMod = d.UpdatedAt.UTC().Format(time.DateOnly)
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
