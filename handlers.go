package pagecraft

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pagecraft/analytics"
	"github.com/eringen/pagecraft/builder"
)

func (a *App) handleHome(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/admin/")
}

// handlePublicPage serves an active document and queues a view. The
// recorder never blocks the response.
func (a *App) handlePublicPage(c echo.Context) error {
	doc, err := a.Cache.Get(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	if a.Recorder != nil {
		req := c.Request()
		a.Recorder.RecordView(doc.ID, analytics.Meta{
			IP:        c.RealIP(),
			UserAgent: req.UserAgent(),
			Referrer:  req.Referer(),
		})
	}
	return Render(c, a.Views.PublicPage(a.siteConfig(), doc))
}

func (a *App) handleSitemap(c echo.Context) error {
	docs, err := a.Store.ListActive(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, docs)
}

func (a *App) handleFeed(c echo.Context) error {
	docs, err := a.Store.ListActive(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, docs)
}

func sortByUpdated(docs []*builder.Document) []*builder.Document {
	out := slices.Clone(docs)
	slices.SortStableFunc(out, func(x, y *builder.Document) int {
		return y.UpdatedAt.Compare(x.UpdatedAt)
	})
	return out
}

// handleRobots serves the static robots.txt when present, otherwise one
// that keeps crawlers out of the admin and points at the sitemap.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	body := fmt.Sprintf("User-agent: *\nDisallow: /admin/\nDisallow: /s/\n\nSitemap: %s\n", strings.TrimRight(BuildURL(a.Config.URL), "/")+"/sitemap.xml")
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	code := statusFor(err)
	if errors.As(err, &he) {
		code = he.Code
	}

	switch {
	case code == http.StatusNotFound:
		_ = RenderStatus(c, code, a.Views.NotFound(a.siteConfig()))
	case code >= http.StatusInternalServerError:
		a.Logger.Error("server error",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
		if he != nil {
			a.Echo.DefaultHTTPErrorHandler(err, c)
			return
		}
		_ = RenderStatus(c, code, a.Views.ServerError(a.siteConfig()))
	case he != nil:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	default:
		_ = c.String(code, err.Error())
	}
}
