package views

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/pagecraft/builder"
)

func write(out io.Writer, w *strings.Builder) error {
	_, err := io.WriteString(out, w.String())
	return err
}

// layout wraps body in the shared HTML shell.
func layout(cfg SiteConfig, meta PageMeta, bodyAttrs attrs, head string, body ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		var w strings.Builder
		title := meta.Title
		if title == "" {
			title = cfg.Name
		} else if cfg.Name != "" && title != cfg.Name {
			title += " | " + cfg.Name
		}
		w.WriteString("<!DOCTYPE html>\n<html lang=\"en\"><head>")
		w.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		textTag(&w, "title", nil, title)
		if meta.Description != "" {
			open(&w, "meta", attrs{"name": "description", "content": meta.Description})
			open(&w, "meta", attrs{"property": "og:description", "content": meta.Description})
		}
		if meta.URL != "" {
			open(&w, "link", attrs{"rel": "canonical", "href": meta.URL})
			open(&w, "meta", attrs{"property": "og:url", "content": meta.URL})
		}
		open(&w, "meta", attrs{"property": "og:title", "content": title})
		if meta.OGType != "" {
			open(&w, "meta", attrs{"property": "og:type", "content": meta.OGType})
		}
		if meta.NoIndex {
			open(&w, "meta", attrs{"name": "robots", "content": "noindex"})
		}
		open(&w, "link", attrs{"rel": "stylesheet", "href": "/public/pagecraft.css"})
		w.WriteString(head)
		w.WriteString("</head>")
		open(&w, "body", bodyAttrs)
		if err := write(out, &w); err != nil {
			return err
		}
		for _, c := range body {
			if err := c.Render(ctx, out); err != nil {
				return err
			}
		}
		_, err := io.WriteString(out, `<script src="/public/pagecraft.js" defer></script></body></html>`)
		return err
	})
}

func raw(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		_, err := io.WriteString(out, s)
		return err
	})
}

// HTMXSrc is where pages load htmx from.
const HTMXSrc = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

const htmxScript = `<script src="` + HTMXSrc + `" defer></script>`

// PublicPage is the externally served view of an active document.
func PublicPage(cfg SiteConfig, doc *builder.Document) templ.Component {
	meta := PageMeta{
		Title:       doc.Title,
		Description: Summary(doc, 160),
		URL:         PublicURL(cfg, doc.Slug),
		OGType:      "website",
	}
	var head strings.Builder
	open(&head, "script", attrs{"type": "application/ld+json"})
	head.WriteString(strings.ReplaceAll(WebPageJsonLD(cfg, doc), "</", `<\/`))
	closeTag(&head, "script")
	return layout(cfg, meta, attrs{"class": "pc-public", "data-document-id": doc.ID}, head.String(), Public(doc))
}

// NotFound is shown for unknown or inactive slugs.
func NotFound(cfg SiteConfig) templ.Component {
	var w strings.Builder
	open(&w, "main", attrs{"class": "pc-message"})
	textTag(&w, "h1", nil, "Page not found")
	textTag(&w, "p", nil, "This page does not exist or is not published yet.")
	textTag(&w, "a", attrs{"href": "/"}, "Go home")
	closeTag(&w, "main")
	return layout(cfg, PageMeta{Title: "Not found", NoIndex: true}, nil, "", raw(w.String()))
}

// ServerError is shown when a request fails unexpectedly.
func ServerError(cfg SiteConfig) templ.Component {
	var w strings.Builder
	open(&w, "main", attrs{"class": "pc-message"})
	textTag(&w, "h1", nil, "Something went wrong")
	textTag(&w, "p", nil, "Please try again in a moment.")
	closeTag(&w, "main")
	return layout(cfg, PageMeta{Title: "Error", NoIndex: true}, nil, "", raw(w.String()))
}

// AdminLogin renders the password form.
func AdminLogin(cfg SiteConfig, showError bool, csrfToken string) templ.Component {
	var w strings.Builder
	open(&w, "main", attrs{"class": "pc-admin pc-login"})
	textTag(&w, "h1", nil, "Sign in")
	if showError {
		textTag(&w, "p", attrs{"class": "pc-status pc-status-error", "role": "alert"}, "Invalid password, or too many attempts.")
	}
	open(&w, "form", attrs{"method": "post", "action": "/admin/login/"})
	open(&w, "input", attrs{"type": "hidden", "name": "_csrf", "value": csrfToken})
	open(&w, "label", attrs{"class": "pc-field"})
	textTag(&w, "span", nil, "Password")
	open(&w, "input", attrs{"type": "password", "name": "password", "autocomplete": "current-password", "required": "required"})
	closeTag(&w, "label")
	textTag(&w, "button", attrs{"type": "submit", "class": "pc-primary"}, "Sign in")
	closeTag(&w, "form")
	closeTag(&w, "main")
	return layout(cfg, PageMeta{Title: "Sign in", NoIndex: true}, nil, "", raw(w.String()))
}

// AdminDashboard lists documents and offers creation from a template.
func AdminDashboard(cfg SiteConfig, d Dashboard) templ.Component {
	var w strings.Builder
	open(&w, "main", attrs{"class": "pc-admin", "id": "pc-dashboard"})
	open(&w, "header", attrs{"class": "pc-admin-header"})
	textTag(&w, "h1", nil, "Documents")
	open(&w, "form", attrs{"method": "post", "action": "/admin/logout/"})
	open(&w, "input", attrs{"type": "hidden", "name": "_csrf", "value": d.CSRFToken})
	textTag(&w, "button", attrs{"type": "submit"}, "Sign out")
	closeTag(&w, "form")
	closeTag(&w, "header")
	if d.Message != "" {
		textTag(&w, "p", attrs{"class": "pc-status", "role": "status"}, d.Message)
	}

	open(&w, "form", attrs{"class": "pc-create", "method": "post", "action": "/admin/documents/"})
	open(&w, "input", attrs{"type": "hidden", "name": "_csrf", "value": d.CSRFToken})
	for _, f := range []struct{ name, label string }{{"title", "Title"}, {"slug", "Slug"}} {
		open(&w, "label", attrs{"class": "pc-field"})
		textTag(&w, "span", nil, f.label)
		open(&w, "input", attrs{"type": "text", "name": f.name, "required": "required"})
		closeTag(&w, "label")
	}
	open(&w, "select", attrs{"name": "kind"})
	for _, k := range []builder.DocumentKind{builder.DocumentLink, builder.DocumentLanding, builder.DocumentEmail, builder.DocumentForm} {
		textTag(&w, "option", attrs{"value": string(k)}, string(k))
	}
	closeTag(&w, "select")
	open(&w, "select", attrs{"name": "template"})
	textTag(&w, "option", attrs{"value": ""}, "Blank")
	for _, t := range d.Templates {
		textTag(&w, "option", attrs{"value": t}, t)
	}
	closeTag(&w, "select")
	textTag(&w, "button", attrs{"type": "submit", "class": "pc-primary"}, "Create")
	closeTag(&w, "form")

	open(&w, "table", attrs{"class": "pc-doc-table"})
	w.WriteString("<thead><tr><th>Title</th><th>Kind</th><th>Slug</th><th>Status</th><th>Views</th><th>Updated</th><th></th></tr></thead><tbody>")
	for _, row := range d.Documents {
		open(&w, "tr", attrs{"id": "doc-" + row.ID})
		open(&w, "td", nil)
		textTag(&w, "a", attrs{"href": "/admin/documents/" + PathEscape(row.ID) + "/edit/"}, row.Title)
		closeTag(&w, "td")
		textTag(&w, "td", nil, row.Kind)
		open(&w, "td", nil)
		if row.Active && row.ShareURL != "" {
			textTag(&w, "a", attrs{"href": row.ShareURL, "target": "_blank", "rel": "noopener"}, row.Slug)
		} else {
			w.WriteString(esc(row.Slug))
		}
		closeTag(&w, "td")
		status := "Draft"
		if row.Active {
			status = "Published"
		}
		textTag(&w, "td", nil, status)
		textTag(&w, "td", nil, strconv.Itoa(row.Views))
		textTag(&w, "td", nil, row.UpdatedAt.Format("2006-01-02 15:04"))
		open(&w, "td", nil)
		textTag(&w, "button", attrs{
			"type":       "button",
			"hx-delete":  "/admin/documents/" + PathEscape(row.ID) + "/",
			"hx-confirm": "Delete " + row.Title + "?",
			"hx-target":  "#doc-" + row.ID,
			"hx-swap":    "outerHTML",
			"hx-headers": hxVals(map[string]string{"X-CSRF-Token": d.CSRFToken}),
		}, "Delete")
		closeTag(&w, "td")
		closeTag(&w, "tr")
	}
	w.WriteString("</tbody>")
	closeTag(&w, "table")
	closeTag(&w, "main")
	return layout(cfg, PageMeta{Title: "Documents", NoIndex: true}, nil, htmxScript, raw(w.String()))
}

// EditorPage is the full builder screen: palette, canvas, global styles
// and the document toolbar.
func EditorPage(cfg SiteConfig, v builder.View, csrfToken string) templ.Component {
	base := EditorBase(v.SessionID)
	doc := v.Document

	var top strings.Builder
	open(&top, "header", attrs{"class": "pc-editor-bar"})
	textTag(&top, "a", attrs{"href": "/admin/", "class": "pc-back"}, "Documents")
	open(&top, "form", attrs{
		"class":      "pc-meta",
		"hx-post":    base + "/meta",
		"hx-trigger": "change",
		"hx-target":  "#" + CanvasID,
		"hx-swap":    "outerHTML",
	})
	open(&top, "input", attrs{"type": "text", "name": "title", "value": doc.Title, "aria-label": "Title"})
	open(&top, "input", attrs{"type": "text", "name": "slug", "value": doc.Slug, "aria-label": "Slug"})
	active := attrs{"type": "checkbox", "name": "active", "value": "true"}
	if doc.Active {
		active["checked"] = "checked"
	}
	open(&top, "label", nil)
	open(&top, "input", active)
	top.WriteString(" Published</label>")
	closeTag(&top, "form")

	button := func(label, method, path, target string) {
		textTag(&top, "button", attrs{
			"type":      "button",
			method:      base + path,
			"hx-target": target,
			"hx-swap":   "innerHTML",
		}, label)
	}
	button("Save", "hx-post", "/save", "#pc-flash")
	button("Preview", "hx-get", "/preview", "#pc-dialog")
	button("Share", "hx-post", "/share", "#pc-flash")
	if doc.Kind == builder.DocumentEmail {
		textTag(&top, "a", attrs{"href": base + "/export", "class": "pc-button-link", "download": doc.Slug + ".html"}, "Export HTML")
	}
	textTag(&top, "div", attrs{"id": "pc-flash", "class": "pc-flash", "aria-live": "polite"}, "")
	closeTag(&top, "header")

	var dialog strings.Builder
	textTag(&dialog, "div", attrs{"id": "pc-dialog"}, "")

	return layout(cfg,
		PageMeta{Title: "Editing " + doc.Title, NoIndex: true},
		attrs{
			"class":      "pc-editor",
			"hx-headers": hxVals(map[string]string{"X-CSRF-Token": csrfToken}),
		},
		htmxScript,
		raw(top.String()),
		raw(`<div class="pc-workspace">`),
		Palette(v),
		raw(`<section class="pc-stage">`),
		Canvas(v),
		raw(`</section>`),
		StylePanel(v),
		raw(`</div>`),
		raw(dialog.String()),
	)
}

// PreviewDialog wraps the public view in a dismissable dialog.
func PreviewDialog(doc *builder.Document) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		var w strings.Builder
		open(&w, "dialog", attrs{"class": "pc-preview", "open": "open"})
		textTag(&w, "button", attrs{"type": "button", "class": "pc-close", "onclick": "this.closest('dialog').remove()"}, "Close")
		if err := write(out, &w); err != nil {
			return err
		}
		if err := Public(doc).Render(ctx, out); err != nil {
			return err
		}
		_, err := io.WriteString(out, "</dialog>")
		return err
	})
}

// Flash is a short status message swapped into the editor bar.
func Flash(msg string, isError bool) templ.Component {
	var w strings.Builder
	class := "pc-flash-msg"
	role := "status"
	if isError {
		class += " pc-status-error"
		role = "alert"
	}
	textTag(&w, "span", attrs{"class": class, "role": role}, msg)
	return raw(w.String())
}

// ShareLink shows the address to share a document with.
func ShareLink(url string) templ.Component {
	var w strings.Builder
	open(&w, "span", attrs{"class": "pc-flash-msg"})
	w.WriteString("Share: ")
	textTag(&w, "a", attrs{"href": url, "target": "_blank", "rel": "noopener"}, url)
	closeTag(&w, "span")
	return raw(w.String())
}
