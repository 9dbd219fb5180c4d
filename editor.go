package pagecraft

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pagecraft/builder"
	"github.com/eringen/pagecraft/views"
)

func (a *App) registerEditorRoutes(g *echo.Group) {
	g.GET("/canvas", a.editorHandler(a.handleCanvas))
	g.POST("/insert", a.editorHandler(a.handleInsert))
	g.POST("/element/:id", a.editorHandler(a.handleUpdateElement))
	g.DELETE("/element/:id", a.editorHandler(a.handleDeleteElement))
	g.POST("/move", a.editorHandler(a.handleMove))
	g.POST("/style", a.editorHandler(a.handleStyle))
	g.POST("/meta", a.editorHandler(a.handleMeta))
	g.POST("/drag/start", a.editorHandler(a.handleDragStart))
	g.POST("/drag/drop", a.editorHandler(a.handleDrop))
	g.POST("/drag/cancel", a.editorHandler(a.handleDragCancel))
	g.POST("/select", a.editorHandler(a.handleSelect))
	g.POST("/edit/:id/begin", a.editorHandler(a.handleBeginEdit))
	g.POST("/edit/stage", a.editorHandler(a.handleStageEdit))
	g.POST("/edit/commit", a.editorHandler(a.handleCommitEdit))
	g.POST("/edit/cancel", a.editorHandler(a.handleCancelEdit))
	g.POST("/save", a.editorHandler(a.handleSave))
	g.GET("/preview", a.editorHandler(a.handlePreview))
	g.GET("/export", a.editorHandler(a.handleExport))
	g.POST("/share", a.editorHandler(a.handleShare))
	g.GET("/json", a.editorHandler(a.handleJSON))
}

type editorFunc func(c echo.Context, s *builder.Session) error

// editorHandler resolves the :session param. An expired session sends
// htmx back to the dashboard.
func (a *App) editorHandler(fn editorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, err := a.Sessions.Get(c.Param("session"))
		if err != nil {
			if isHTMX(c) && errors.Is(err, builder.ErrNotFound) {
				c.Response().Header().Set("HX-Redirect", "/admin/?msg=Editor+session+expired")
				return c.NoContent(http.StatusOK)
			}
			return err
		}
		return fn(c, s)
	}
}

// canvas answers a mutation with the refreshed canvas. A rejected
// mutation keeps its 4xx status and adds an out-of-band flash so the
// editor sees why.
func (a *App) canvas(c echo.Context, s *builder.Session, err error) error {
	if err == nil {
		return Render(c, a.Views.Canvas(s.Snapshot()))
	}
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		return err
	}
	return RenderStatus(c, code, templ.Join(a.Views.Canvas(s.Snapshot()), a.oobFlash(err.Error(), true)))
}

func (a *App) oobFlash(msg string, isError bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div id="pc-flash" class="pc-flash" aria-live="polite" hx-swap-oob="true">`); err != nil {
			return err
		}
		if err := a.Views.Flash(msg, isError).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// flash answers a toolbar action targeting #pc-flash.
func (a *App) flash(c echo.Context, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		return err
	}
	return RenderStatus(c, code, a.Views.Flash(err.Error(), true))
}

// slotFromForm reads parent and slot. A missing parent is the root.
func slotFromForm(c echo.Context) (builder.Slot, error) {
	slot := builder.Slot{ParentID: strings.TrimSpace(c.FormValue("parent"))}
	if raw := c.FormValue("slot"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return slot, fmt.Errorf("%w: slot %q", builder.ErrValidation, raw)
		}
		slot.Index = n
	}
	return slot, nil
}

func intForm(c echo.Context, name string) (int, error) {
	raw := c.FormValue(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", builder.ErrValidation, name, raw)
	}
	return n, nil
}

// editForm returns the submitted fields without the CSRF token and the
// htmx bookkeeping values.
func editForm(c echo.Context) (url.Values, error) {
	form, err := c.FormParams()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", builder.ErrValidation, err)
	}
	out := url.Values{}
	for k, v := range form {
		if k == "_csrf" || k == "id" {
			continue
		}
		out[k] = v
	}
	return out, nil
}

func (a *App) handleCanvas(c echo.Context, s *builder.Session) error {
	return a.canvas(c, s, nil)
}

func (a *App) handleInsert(c echo.Context, s *builder.Session) error {
	slot, err := slotFromForm(c)
	if err != nil {
		return a.canvas(c, s, err)
	}
	_, err = s.Insert(slot, builder.Kind(c.FormValue("kind")))
	return a.canvas(c, s, err)
}

func (a *App) handleUpdateElement(c echo.Context, s *builder.Session) error {
	id := c.Param("id")
	el := s.Document().Find(id)
	if el == nil {
		return a.canvas(c, s, fmt.Errorf("%w: element %s", builder.ErrNotFound, id))
	}
	form, err := editForm(c)
	if err != nil {
		return a.canvas(c, s, err)
	}
	return a.canvas(c, s, s.Update(id, builder.FieldsFromForm(el.Kind, form)))
}

func (a *App) handleDeleteElement(c echo.Context, s *builder.Session) error {
	return a.canvas(c, s, s.Delete(c.Param("id")))
}

func (a *App) handleMove(c echo.Context, s *builder.Session) error {
	slot, err := slotFromForm(c)
	if err != nil {
		return a.canvas(c, s, err)
	}
	index, err := intForm(c, "index")
	if err != nil {
		return a.canvas(c, s, err)
	}
	return a.canvas(c, s, s.Move(c.FormValue("id"), slot, index))
}

// stylePatch maps the global style form. Blank inputs reset the field.
func stylePatch(c echo.Context) (builder.StylePatch, error) {
	form, err := c.FormParams()
	if err != nil {
		return builder.StylePatch{}, fmt.Errorf("%w: %v", builder.ErrValidation, err)
	}
	var p builder.StylePatch
	str := func(name string) *string {
		if !form.Has(name) {
			return nil
		}
		v := strings.TrimSpace(form.Get(name))
		return &v
	}
	p.Theme = str("theme")
	p.TextColor = str("textColor")
	p.ButtonColor = str("buttonColor")
	p.ButtonTextColor = str("buttonTextColor")
	p.FontFamily = str("fontFamily")
	if v := str("buttonMode"); v != nil {
		mode := builder.ButtonMode(*v)
		p.ButtonMode = &mode
	}
	if v := str("radius"); v != nil {
		r := builder.Radius(*v)
		p.Radius = &r
	}
	if form.Has("backgroundColor") || form.Has("backgroundImage") {
		p.Background = &builder.Background{
			Color: strings.TrimSpace(form.Get("backgroundColor")),
			Image: strings.TrimSpace(form.Get("backgroundImage")),
		}
	}
	return p, nil
}

func (a *App) handleStyle(c echo.Context, s *builder.Session) error {
	patch, err := stylePatch(c)
	if err != nil {
		return a.canvas(c, s, err)
	}
	return a.canvas(c, s, s.SetStyle(patch))
}

func (a *App) handleMeta(c echo.Context, s *builder.Session) error {
	title := strings.TrimSpace(c.FormValue("title"))
	slug := strings.TrimSpace(c.FormValue("slug"))
	if slug == "" {
		slug = Slugify(title)
	}
	active, _ := strconv.ParseBool(c.FormValue("active"))
	return a.canvas(c, s, s.SetMeta(title, slug, active))
}

func (a *App) handleDragStart(c echo.Context, s *builder.Session) error {
	var err error
	switch {
	case c.FormValue("kind") != "":
		err = s.StartPaletteDrag(builder.Kind(c.FormValue("kind")))
	case c.FormValue("id") != "":
		err = s.StartElementDrag(c.FormValue("id"))
	default:
		err = fmt.Errorf("%w: drag needs a kind or an element id", builder.ErrValidation)
	}
	if err != nil {
		return a.flash(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleDrop(c echo.Context, s *builder.Session) error {
	slot, err := slotFromForm(c)
	if err != nil {
		return a.canvas(c, s, err)
	}
	index, err := intForm(c, "index")
	if err != nil {
		return a.canvas(c, s, err)
	}
	_, err = s.Drop(builder.DropTarget{Slot: slot, Index: index})
	return a.canvas(c, s, err)
}

func (a *App) handleDragCancel(c echo.Context, s *builder.Session) error {
	s.CancelDrag()
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleSelect(c echo.Context, s *builder.Session) error {
	if c.FormValue("id") == "" && c.FormValue("slot") != "" {
		slot, err := slotFromForm(c)
		if err != nil {
			return a.canvas(c, s, err)
		}
		return a.canvas(c, s, s.SelectSlot(slot))
	}
	return a.canvas(c, s, s.Select(c.FormValue("id")))
}

func (a *App) handleBeginEdit(c echo.Context, s *builder.Session) error {
	return a.canvas(c, s, s.BeginEdit(c.Param("id")))
}

func (a *App) editingKind(s *builder.Session) (builder.Kind, error) {
	v := s.Snapshot()
	if v.Editing == nil {
		return "", fmt.Errorf("%w: no edit in progress", builder.ErrValidation)
	}
	el := v.Document.Find(v.Editing.ElementID)
	if el == nil {
		return "", fmt.Errorf("%w: element %s", builder.ErrNotFound, v.Editing.ElementID)
	}
	return el.Kind, nil
}

func (a *App) stage(c echo.Context, s *builder.Session) error {
	kind, err := a.editingKind(s)
	if err != nil {
		return err
	}
	form, err := editForm(c)
	if err != nil {
		return err
	}
	if len(form) == 0 {
		return nil
	}
	return s.StageEdit(builder.FieldsFromForm(kind, form))
}

func (a *App) handleStageEdit(c echo.Context, s *builder.Session) error {
	if err := a.stage(c, s); err != nil {
		return a.flash(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleCommitEdit stages whatever the form submits before committing, so
// a direct submit without prior change events still applies.
func (a *App) handleCommitEdit(c echo.Context, s *builder.Session) error {
	if err := a.stage(c, s); err != nil {
		return a.canvas(c, s, err)
	}
	return a.canvas(c, s, s.CommitEdit())
}

func (a *App) handleCancelEdit(c echo.Context, s *builder.Session) error {
	s.CancelEdit()
	return a.canvas(c, s, nil)
}

func (a *App) handleSave(c echo.Context, s *builder.Session) error {
	_, err := s.Save(c.Request().Context(), a)
	c.Response().Header().Set("HX-Trigger", views.RefreshEvent)
	if err != nil {
		return a.flash(c, err)
	}
	return Render(c, a.Views.Flash("Saved", false))
}

func (a *App) handlePreview(c echo.Context, s *builder.Session) error {
	return Render(c, a.Views.PreviewDialog(s.Document()))
}

func (a *App) handleExport(c echo.Context, s *builder.Session) error {
	doc := s.Document()
	if doc.Kind != builder.DocumentEmail {
		return fmt.Errorf("%w: only email documents export to HTML", builder.ErrValidation)
	}
	html, err := views.ExportHTML(doc)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Slug+".html"))
	return c.HTML(http.StatusOK, html)
}

func (a *App) handleShare(c echo.Context, s *builder.Session) error {
	doc := s.Document()
	if doc.ID == "" || !doc.Active || s.Dirty() {
		return a.flash(c, fmt.Errorf("%w: publish and save the document to share it", builder.ErrValidation))
	}
	return Render(c, a.Views.ShareLink(a.ShareURL(c.Request().Context(), doc)))
}

func (a *App) handleJSON(c echo.Context, s *builder.Session) error {
	return c.JSON(http.StatusOK, s.Document())
}

// SaveDocument saves through the store and drops the document's old and
// new slugs from the page cache. App is the DocumentSaver editor sessions
// save through.
func (a *App) SaveDocument(ctx context.Context, doc *builder.Document) (*builder.Document, error) {
	var oldSlug string
	if doc.ID != "" {
		if prev, err := a.Store.LoadDocument(ctx, doc.ID); err == nil {
			oldSlug = prev.Slug
		}
	}
	saved, err := a.Store.SaveDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	slugs := []string{saved.Slug}
	if oldSlug != "" && oldSlug != saved.Slug {
		slugs = append(slugs, oldSlug)
	}
	a.Cache.Invalidate(ctx, slugs...)
	return saved, nil
}
