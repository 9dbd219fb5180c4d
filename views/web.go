package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/pagecraft/builder"
	"github.com/eringen/pagecraft/markdown"
)

// CanvasID is the DOM id every editor mutation swaps.
const CanvasID = "pc-canvas"

// RefreshEvent is the HX-Trigger event that makes the canvas reload itself.
const RefreshEvent = "pc-refresh"

// EditorBase is the URL prefix of a session's editor endpoints.
func EditorBase(sessionID string) string {
	return "/admin/edit/" + sessionID
}

// webRenderer renders a document as HTML for browsers. With a nil canvas
// it produces the public view; otherwise every element also carries the
// editor's selection, drag and inline-edit affordances.
type webRenderer struct {
	doc    *builder.Document
	canvas *canvasState
}

type canvasState struct {
	base      string
	selection builder.Selection
	editing   *builder.EditBuffer
}

func (r *webRenderer) sequence(w *strings.Builder, seq []*builder.Element, slot builder.Slot) {
	for i, el := range seq {
		r.dropZone(w, slot, i)
		r.element(w, el)
	}
	r.dropZone(w, slot, len(seq))
}

func (r *webRenderer) element(w *strings.Builder, el *builder.Element) {
	st := Resolve(r.doc.Styles, el.Style)
	if r.canvas == nil {
		r.block(w, el, st)
		return
	}

	class := "pc-el"
	if r.canvas.selection.ElementID == el.ID {
		class += " pc-selected"
	}
	open(w, "div", attrs{
		"class":           class,
		"data-element-id": el.ID,
		"data-kind":       string(el.Kind),
		"draggable":       "true",
		"hx-post":         r.canvas.base + "/select",
		"hx-vals":         hxVals(map[string]string{"id": el.ID}),
		"hx-trigger":      "click consume",
		"hx-target":       "#" + CanvasID,
		"hx-swap":         "outerHTML",
	})
	r.toolbar(w, el)
	if r.canvas.editing != nil && r.canvas.editing.ElementID == el.ID {
		r.editForm(w, el)
	} else {
		r.block(w, el, st)
	}
	closeTag(w, "div")
}

func (r *webRenderer) toolbar(w *strings.Builder, el *builder.Element) {
	open(w, "div", attrs{"class": "pc-toolbar"})
	if !el.Unknown() {
		textTag(w, "button", attrs{
			"type":       "button",
			"class":      "pc-tool",
			"hx-post":    r.canvas.base + "/edit/" + el.ID + "/begin",
			"hx-target":  "#" + CanvasID,
			"hx-swap":    "outerHTML",
			"hx-trigger": "click consume",
		}, "Edit")
	}
	textTag(w, "button", attrs{
		"type":       "button",
		"class":      "pc-tool pc-danger",
		"hx-delete":  r.canvas.base + "/element/" + el.ID,
		"hx-confirm": "Delete this element?",
		"hx-target":  "#" + CanvasID,
		"hx-swap":    "outerHTML",
		"hx-trigger": "click consume",
	}, "Delete")
	closeTag(w, "div")
}

func (r *webRenderer) dropZone(w *strings.Builder, slot builder.Slot, index int) {
	if r.canvas == nil {
		return
	}
	textTag(w, "div", attrs{
		"class":       "pc-drop",
		"data-parent": slot.ParentID,
		"data-slot":   strconv.Itoa(slot.Index),
		"data-index":  strconv.Itoa(index),
		"hx-post":     r.canvas.base + "/drag/drop",
		"hx-trigger":  "drop",
		"hx-vals": hxVals(map[string]string{
			"parent": slot.ParentID,
			"slot":   strconv.Itoa(slot.Index),
			"index":  strconv.Itoa(index),
		}),
		"hx-target": "#" + CanvasID,
		"hx-swap":   "outerHTML",
	}, "")
}

// block dispatches on the element's content type. Unknown types and
// elements missing required fields render a placeholder.
func (r *webRenderer) block(w *strings.Builder, el *builder.Element, st ResolvedStyle) {
	if u, ok := el.Content.(*builder.UnknownContent); ok {
		placeholder(w, fmt.Sprintf("Unsupported element %q", u.Type))
		return
	}
	if missing := el.Missing(); len(missing) > 0 {
		placeholder(w, string(el.Kind)+": missing "+strings.Join(missing, ", "))
		return
	}

	box := attrs{"class": "pc-block pc-" + string(el.Kind), "style": st.block().String()}
	switch c := el.Content.(type) {
	case *builder.ProfileContent:
		open(w, "div", box)
		if c.Image != "" {
			open(w, "img", attrs{"class": "pc-avatar", "src": safeURL(c.Image), "alt": c.Title})
		}
		textTag(w, "h1", attrs{"class": "pc-title"}, c.Title)
		if c.Subtitle != "" {
			textTag(w, "p", attrs{"class": "pc-subtitle"}, c.Subtitle)
		}
		closeTag(w, "div")
	case *builder.SocialsContent:
		open(w, "div", box)
		for _, l := range c.Links {
			textTag(w, "a", attrs{
				"class": "pc-social pc-social-" + l.Platform,
				"href":  safeURL(l.URL),
				"rel":   "noopener",
			}, l.Platform)
		}
		closeTag(w, "div")
	case *builder.LinkContent:
		open(w, "a", attrs{
			"class": "pc-block pc-link",
			"href":  safeURL(c.URL),
			"rel":   "noopener",
			"style": st.button().String(),
		})
		if c.Image != "" {
			open(w, "img", attrs{"class": "pc-link-thumb", "src": safeURL(c.Image), "alt": ""})
		}
		textTag(w, "span", nil, c.Title)
		closeTag(w, "a")
	case *builder.CardContent:
		open(w, "div", box)
		if c.Image != "" {
			open(w, "img", attrs{"class": "pc-card-image", "src": safeURL(c.Image), "alt": c.Title})
		}
		textTag(w, "h3", nil, c.Title)
		writeMarkdown(w, c.Body)
		if c.URL != "" {
			textTag(w, "a", attrs{"href": safeURL(c.URL), "rel": "noopener"}, "Learn more")
		}
		closeTag(w, "div")
	case *builder.ButtonContent:
		open(w, "div", box)
		textTag(w, "a", attrs{
			"class": "pc-button",
			"href":  safeURL(c.URL),
			"rel":   "noopener",
			"style": st.button().String(),
		}, c.Title)
		closeTag(w, "div")
	case *builder.HeaderContent:
		open(w, "div", box)
		textTag(w, "h2", nil, c.Title)
		if c.Subtitle != "" {
			textTag(w, "p", attrs{"class": "pc-subtitle"}, c.Subtitle)
		}
		closeTag(w, "div")
	case *builder.ImageContent:
		open(w, "div", box)
		if c.URL != "" {
			open(w, "a", attrs{"href": safeURL(c.URL), "rel": "noopener"})
		}
		open(w, "img", attrs{"src": safeURL(c.Image), "alt": c.Alt, "style": css{"border-radius": st.Radius, "max-width": "100%"}.String()})
		if c.URL != "" {
			closeTag(w, "a")
		}
		closeTag(w, "div")
	case *builder.DividerContent:
		open(w, "hr", attrs{"class": "pc-block pc-divider", "style": css{"border-color": st.Text}.String()})
	case *builder.TextContent:
		open(w, "div", box)
		writeMarkdown(w, c.Body)
		closeTag(w, "div")
	case *builder.LogoContent:
		open(w, "div", box)
		open(w, "img", attrs{"class": "pc-logo", "src": safeURL(c.Image), "alt": c.Alt})
		closeTag(w, "div")
	case *builder.CountdownContent:
		target := c.TargetDate.UTC()
		open(w, "div", attrs{
			"class":       "pc-block pc-countdown",
			"style":       st.block().String(),
			"data-target": target.Format("2006-01-02T15:04:05Z07:00"),
		})
		if c.Title != "" {
			textTag(w, "p", attrs{"class": "pc-title"}, c.Title)
		}
		textTag(w, "time", attrs{"datetime": target.Format("2006-01-02T15:04:05Z07:00")}, target.Format("Jan 2, 2006 15:04 UTC"))
		closeTag(w, "div")
	case *builder.LayoutContent:
		open(w, "div", attrs{
			"class": "pc-layout pc-cols-" + strconv.Itoa(el.Kind.Slots()),
			"style": css{"background-color": st.Background, "border-radius": st.Radius}.String(),
		})
		for i := range el.Slots {
			open(w, "div", attrs{"class": "pc-col", "data-slot": strconv.Itoa(i)})
			r.sequence(w, el.Slot(i), builder.Slot{ParentID: el.ID, Index: i})
			closeTag(w, "div")
		}
		closeTag(w, "div")
	default:
		placeholder(w, fmt.Sprintf("Unsupported element %q", el.Kind))
	}
}

func writeMarkdown(w *strings.Builder, body string) {
	out, err := markdown.Render(body)
	if err != nil {
		placeholder(w, "text could not be rendered")
		return
	}
	w.WriteString(out)
}

func placeholder(w *strings.Builder, msg string) {
	textTag(w, "div", attrs{"class": "pc-placeholder", "role": "note"}, msg)
}

func (r *webRenderer) root(w *strings.Builder) {
	children, _ := r.doc.Children(builder.Root)
	r.sequence(w, children, builder.Root)
}

// Public renders the document without any editor affordances. It is used
// by the preview dialog and the public page.
func Public(doc *builder.Document) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		var w strings.Builder
		open(&w, "main", attrs{
			"class": "pc-page pc-doc-" + string(doc.Kind),
			"style": ResolvePage(doc.Styles).body().String(),
		})
		(&webRenderer{doc: doc}).root(&w)
		closeTag(&w, "main")
		_, err := io.WriteString(out, w.String())
		return err
	})
}

// Canvas renders the editable canvas for a session snapshot.
func Canvas(v builder.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		var w strings.Builder
		r := &webRenderer{doc: v.Document, canvas: &canvasState{
			base:      EditorBase(v.SessionID),
			selection: v.Selection,
			editing:   v.Editing,
		}}
		a := attrs{
			"id":           CanvasID,
			"class":        "pc-canvas pc-doc-" + string(v.Document.Kind),
			"data-session": v.SessionID,
			"style":        ResolvePage(v.Document.Styles).body().String(),
			"hx-get":       EditorBase(v.SessionID) + "/canvas",
			"hx-trigger":   RefreshEvent + " from:body",
			"hx-swap":      "outerHTML",
		}
		if v.Dragging != nil {
			a["data-dragging"] = "true"
		}
		open(&w, "div", a)
		writeStatus(&w, v)
		r.root(&w)
		closeTag(&w, "div")
		_, err := io.WriteString(out, w.String())
		return err
	})
}

func writeStatus(w *strings.Builder, v builder.View) {
	switch {
	case v.SaveError != nil:
		textTag(w, "div", attrs{"class": "pc-status pc-status-error", "role": "alert"}, "Save failed: "+v.SaveError.Error()+". Your changes are kept; try saving again.")
	case v.Dirty:
		textTag(w, "div", attrs{"class": "pc-status"}, "Unsaved changes")
	default:
		textTag(w, "div", attrs{"class": "pc-status pc-status-saved"}, "All changes saved")
	}
}
