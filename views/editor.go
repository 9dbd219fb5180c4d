package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/pagecraft/builder"
)

type formField struct {
	Name  string
	Label string
	Type  string // text, url, textarea, datetime-local, links
}

var (
	fTitle    = formField{"title", "Title", "text"}
	fSubtitle = formField{"subtitle", "Subtitle", "text"}
	fURL      = formField{"url", "Link", "url"}
	fImage    = formField{"image", "Image URL", "url"}
	fAlt      = formField{"alt", "Alt text", "text"}
	fBody     = formField{"body", "Text (markdown)", "textarea"}
)

func formFields(k builder.Kind) []formField {
	switch k {
	case builder.KindProfile:
		return []formField{fTitle, fSubtitle, fImage}
	case builder.KindSocials:
		return []formField{{"links", "Links, one per line: platform url", "links"}}
	case builder.KindLink:
		return []formField{fTitle, fURL, fImage}
	case builder.KindCard:
		return []formField{fTitle, fBody, fImage, fURL}
	case builder.KindButton:
		return []formField{fTitle, fURL}
	case builder.KindHeader:
		return []formField{fTitle, fSubtitle}
	case builder.KindImage:
		return []formField{fImage, fAlt, fURL}
	case builder.KindText:
		return []formField{fBody}
	case builder.KindLogo:
		return []formField{fImage, fAlt}
	case builder.KindCountdown:
		return []formField{fTitle, {"targetDate", "Ends at (UTC)", "datetime-local"}}
	}
	return nil
}

var styleFields = []formField{
	{"style.backgroundColor", "Background", "text"},
	{"style.textColor", "Text color", "text"},
	{"style.buttonColor", "Button color", "text"},
	{"style.buttonTextColor", "Button text", "text"},
	{"style.fontFamily", "Font", "text"},
}

var radiusOptions = []string{"", "none", "sm", "md", "lg", "full"}
var alignOptions = []string{"", "left", "center", "right"}

func (r *webRenderer) editForm(w *strings.Builder, el *builder.Element) {
	values := builder.FormValues(el)
	for k, v := range r.canvas.editing.Fields {
		if s, ok := v.(string); ok {
			values.Set(k, s)
		}
	}
	target := "#" + CanvasID
	open(w, "form", attrs{
		"class":     "pc-edit",
		"hx-post":   r.canvas.base + "/edit/commit",
		"hx-target": target,
		"hx-swap":   "outerHTML",
	})
	stage := attrs{
		"hx-post":    r.canvas.base + "/edit/stage",
		"hx-trigger": "change",
		"hx-swap":    "none",
		"hx-include": "closest form",
	}
	input := func(f formField) {
		open(w, "label", attrs{"class": "pc-field"})
		textTag(w, "span", nil, f.Label)
		a := attrs{"name": f.Name}
		for k, v := range stage {
			a[k] = v
		}
		switch f.Type {
		case "textarea", "links":
			a["rows"] = "4"
			textTag(w, "textarea", a, values.Get(f.Name))
		default:
			a["type"] = f.Type
			if f.Type == "url" {
				a["type"] = "text"
				a["inputmode"] = "url"
			}
			a["value"] = values.Get(f.Name)
			open(w, "input", a)
		}
		closeTag(w, "label")
	}
	sel := func(name, label string, options []string) {
		open(w, "label", attrs{"class": "pc-field"})
		textTag(w, "span", nil, label)
		open(w, "select", attrs{"name": name})
		for _, o := range options {
			a := attrs{"value": o}
			if values.Get(name) == o {
				a["selected"] = "selected"
			}
			text := o
			if text == "" {
				text = "inherit"
			}
			textTag(w, "option", a, text)
		}
		closeTag(w, "select")
		closeTag(w, "label")
	}

	for _, f := range formFields(el.Kind) {
		input(f)
	}
	open(w, "fieldset", attrs{"class": "pc-style-fields"})
	textTag(w, "legend", nil, "Style")
	for _, f := range styleFields {
		input(f)
	}
	sel("style.radius", "Corners", radiusOptions)
	sel("style.align", "Align", alignOptions)
	closeTag(w, "fieldset")

	textTag(w, "button", attrs{"type": "submit", "class": "pc-primary"}, "Apply")
	textTag(w, "button", attrs{
		"type":      "button",
		"hx-post":   r.canvas.base + "/edit/cancel",
		"hx-target": target,
		"hx-swap":   "outerHTML",
	}, "Cancel")
	closeTag(w, "form")
}

// Palette renders the draggable catalog. Clicking an entry appends it to
// the selected slot, or the root when nothing is selected.
func Palette(v builder.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		var w strings.Builder
		base := EditorBase(v.SessionID)
		open(&w, "aside", attrs{"id": "pc-palette", "class": "pc-palette"})
		for _, group := range v.Palette.Groups() {
			open(&w, "section", attrs{"class": "pc-palette-group", "data-group": group})
			textTag(&w, "h4", nil, groupLabel(group))
			for _, def := range v.Palette.Group(group) {
				vals := map[string]string{"kind": string(def.Kind)}
				if s := v.Selection.Slot; s != nil {
					vals["parent"] = s.ParentID
					vals["slot"] = fmt.Sprint(s.Index)
				}
				textTag(&w, "button", attrs{
					"type":      "button",
					"class":     "pc-palette-item",
					"draggable": "true",
					"data-kind": string(def.Kind),
					"hx-post":   base + "/insert",
					"hx-vals":   hxVals(vals),
					"hx-target": "#" + CanvasID,
					"hx-swap":   "outerHTML",
				}, def.Label)
			}
			closeTag(&w, "section")
		}
		closeTag(&w, "aside")
		_, err := io.WriteString(out, w.String())
		return err
	})
}

func groupLabel(g string) string {
	switch g {
	case builder.GroupElement:
		return "Elements"
	case builder.GroupLayout:
		return "Layouts"
	}
	return g
}

// StylePanel renders the global style form.
func StylePanel(v builder.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		var w strings.Builder
		s := v.Document.Styles
		open(&w, "form", attrs{
			"id":         "pc-styles",
			"class":      "pc-styles",
			"hx-post":    EditorBase(v.SessionID) + "/style",
			"hx-trigger": "change",
			"hx-target":  "#" + CanvasID,
			"hx-swap":    "outerHTML",
		})
		choice := func(name, label, current string, options []string) {
			open(&w, "label", attrs{"class": "pc-field"})
			textTag(&w, "span", nil, label)
			open(&w, "select", attrs{"name": name})
			for _, o := range options {
				a := attrs{"value": o}
				if o == current {
					a["selected"] = "selected"
				}
				textTag(&w, "option", a, o)
			}
			closeTag(&w, "select")
			closeTag(&w, "label")
		}
		text := func(name, label, current string) {
			open(&w, "label", attrs{"class": "pc-field"})
			textTag(&w, "span", nil, label)
			open(&w, "input", attrs{"type": "text", "name": name, "value": current})
			closeTag(&w, "label")
		}
		names := make([]string, 0, len(themes))
		for _, t := range themes {
			names = append(names, t.Name)
		}
		choice("theme", "Theme", s.Theme, names)
		text("backgroundColor", "Background", s.Background.Color)
		text("backgroundImage", "Background image", s.Background.Image)
		text("textColor", "Text color", s.TextColor)
		choice("buttonMode", "Buttons", string(s.ButtonMode), []string{string(builder.ButtonFill), string(builder.ButtonOutline)})
		text("buttonColor", "Button color", s.ButtonColor)
		text("buttonTextColor", "Button text", s.ButtonTextColor)
		choice("radius", "Corners", string(s.Radius), radiusOptions[1:])
		text("fontFamily", "Font", s.FontFamily)
		closeTag(&w, "form")
		_, err := io.WriteString(out, w.String())
		return err
	})
}
