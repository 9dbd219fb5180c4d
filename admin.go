package pagecraft

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pagecraft/builder"
	"github.com/eringen/pagecraft/scaffold"
	"github.com/eringen/pagecraft/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(a.siteConfig(), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warn("admin login failed", zap.String("ip", ip))
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(a.siteConfig(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func dashboardRedirect(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

// handleCreateDocument saves a new document, blank or from a template, and
// opens it in the editor.
func (a *App) handleCreateDocument(c echo.Context) error {
	title := strings.TrimSpace(c.FormValue("title"))
	slug := strings.TrimSpace(c.FormValue("slug"))
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return dashboardRedirect(c, "Slug is required. Add a title or slug.")
	}
	kind := builder.DocumentKind(c.FormValue("kind"))
	if kind == "" {
		kind = builder.DocumentLink
	}
	doc, err := scaffold.New(kind, title, slug, c.FormValue("template"), nil)
	if err != nil {
		return dashboardRedirect(c, err.Error())
	}
	doc.OwnerID = DefaultOwner
	if err := doc.Validate(); err != nil {
		return dashboardRedirect(c, err.Error())
	}
	saved, err := a.SaveDocument(c.Request().Context(), doc)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return dashboardRedirect(c, "The slug "+slug+" is already taken.")
		}
		return err
	}
	a.Logger.Info("document created", zap.String("id", saved.ID), zap.String("slug", saved.Slug))
	return c.Redirect(http.StatusSeeOther, "/admin/documents/"+url.PathEscape(saved.ID)+"/edit/")
}

// handleEditDocument opens an editor session on the stored document.
func (a *App) handleEditDocument(c echo.Context) error {
	doc, err := a.Store.LoadDocument(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	s := a.Sessions.Open(doc)
	return Render(c, a.Views.EditorPage(a.siteConfig(), s.Snapshot(), CsrfToken(c)))
}

// handleDeleteDocument answers htmx with an empty body so the dashboard
// row swaps out.
func (a *App) handleDeleteDocument(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	doc, err := a.Store.LoadDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := a.Store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	a.Cache.Invalidate(ctx, doc.Slug)
	a.Sessions.CloseDocument(id)
	if a.analyticsStore != nil {
		if err := a.analyticsStore.DeleteDocument(ctx, id); err != nil {
			a.Logger.Warn("delete document analytics", zap.String("id", id), zap.Error(err))
		}
	}
	a.Logger.Info("document deleted", zap.String("id", id), zap.String("slug", doc.Slug))
	if isHTMX(c) {
		return c.HTML(http.StatusOK, "")
	}
	return dashboardRedirect(c, "Deleted "+doc.Title)
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	ctx := c.Request().Context()
	docs, err := a.Store.ListDocuments(ctx, DefaultOwner)
	if err != nil {
		return err
	}
	var counts map[string]int
	if a.analyticsStore != nil {
		if counts, err = a.analyticsStore.ViewCounts(ctx); err != nil {
			a.Logger.Warn("dashboard view counts", zap.Error(err))
		}
	}
	rows := make([]views.DocumentRow, 0, len(docs))
	for _, d := range docs {
		row := views.DocumentRow{
			ID:        d.ID,
			Title:     d.Title,
			Kind:      string(d.Kind),
			Slug:      d.Slug,
			Active:    d.Active,
			UpdatedAt: d.UpdatedAt,
			Views:     counts[d.ID],
		}
		if d.Active {
			row.ShareURL = a.ShareURL(ctx, d)
		}
		rows = append(rows, row)
	}
	return Render(c, a.Views.AdminDashboard(a.siteConfig(), views.Dashboard{
		Documents: rows,
		Templates: scaffold.Names(),
		Message:   msg,
		CSRFToken: CsrfToken(c),
	}))
}
