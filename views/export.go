package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eringen/pagecraft/builder"
	"github.com/eringen/pagecraft/markdown"
)

// EmailWidth is the content width of exported emails in pixels.
const EmailWidth = 600

// ExportHTML renders doc as a standalone, table-based HTML email with all
// styles inlined. Output depends only on the document: attributes and
// style properties are written in sorted order, children in Order, and
// nothing time-dependent is included. Exporting an unchanged document
// twice yields identical strings.
func ExportHTML(doc *builder.Document) (string, error) {
	page := ResolvePage(doc.Styles)
	var w strings.Builder

	w.WriteString("<!DOCTYPE html>\n")
	w.WriteString(`<html lang="en" xmlns="http://www.w3.org/1999/xhtml"><head>`)
	w.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
	w.WriteString(`<meta name="x-apple-disable-message-reformatting">`)
	textTag(&w, "title", nil, doc.Title)
	w.WriteString("</head>")

	open(&w, "body", attrs{"style": css{"margin": "0", "padding": "0", "background-color": page.Background}.String()})
	open(&w, "table", tableAttrs("100%", page.body()))
	open(&w, "tr", nil)
	open(&w, "td", attrs{"align": "center", "valign": "top"})
	open(&w, "table", tableAttrs(strconv.Itoa(EmailWidth), css{"max-width": strconv.Itoa(EmailWidth) + "px", "width": "100%"}))

	children, err := doc.Children(builder.Root)
	if err != nil {
		return "", err
	}
	if err := exportSeq(&w, doc, children); err != nil {
		return "", err
	}

	closeTag(&w, "table")
	closeTag(&w, "td")
	closeTag(&w, "tr")
	closeTag(&w, "table")
	closeTag(&w, "body")
	w.WriteString("</html>\n")
	return w.String(), nil
}

func tableAttrs(width string, style css) attrs {
	return attrs{
		"role":        "presentation",
		"width":       width,
		"cellpadding": "0",
		"cellspacing": "0",
		"border":      "0",
		"style":       style.String(),
	}
}

func exportSeq(w *strings.Builder, doc *builder.Document, seq []*builder.Element) error {
	for _, el := range seq {
		if err := exportRow(w, doc, el); err != nil {
			return err
		}
	}
	return nil
}

// exportRow writes one element as a table row.
func exportRow(w *strings.Builder, doc *builder.Document, el *builder.Element) error {
	st := Resolve(doc.Styles, el.Style)
	cell := css{
		"background-color": st.Background,
		"color":            st.Text,
		"font-family":      st.FontFamily,
		"padding":          "12px 24px",
		"text-align":       st.Align,
	}
	open(w, "tr", nil)
	open(w, "td", attrs{"align": st.Align, "style": cell.String()})
	defer func() {
		closeTag(w, "td")
		closeTag(w, "tr")
	}()

	if u, ok := el.Content.(*builder.UnknownContent); ok {
		emailPlaceholder(w, fmt.Sprintf("Unsupported element %q", u.Type))
		return nil
	}
	if missing := el.Missing(); len(missing) > 0 {
		emailPlaceholder(w, string(el.Kind)+": missing "+strings.Join(missing, ", "))
		return nil
	}

	switch c := el.Content.(type) {
	case *builder.ProfileContent:
		if c.Image != "" {
			emailImage(w, c.Image, c.Title, "96", css{"border-radius": "50%"})
		}
		textTag(w, "h1", attrs{"style": css{"font-size": "24px", "margin": "8px 0"}.String()}, c.Title)
		if c.Subtitle != "" {
			textTag(w, "p", attrs{"style": css{"margin": "0"}.String()}, c.Subtitle)
		}
	case *builder.SocialsContent:
		for i, l := range c.Links {
			if i > 0 {
				w.WriteString(" &middot; ")
			}
			textTag(w, "a", attrs{"href": safeURL(l.URL), "style": css{"color": st.Text}.String()}, l.Platform)
		}
	case *builder.LinkContent:
		emailButton(w, st, c.Title, c.URL, "100%")
	case *builder.CardContent:
		if c.Image != "" {
			emailImage(w, c.Image, c.Title, strconv.Itoa(EmailWidth-48), css{"border-radius": st.Radius})
		}
		textTag(w, "h3", attrs{"style": css{"margin": "8px 0"}.String()}, c.Title)
		if err := emailMarkdown(w, c.Body); err != nil {
			return err
		}
		if c.URL != "" {
			textTag(w, "a", attrs{"href": safeURL(c.URL), "style": css{"color": st.Text}.String()}, "Learn more")
		}
	case *builder.ButtonContent:
		emailButton(w, st, c.Title, c.URL, "")
	case *builder.HeaderContent:
		textTag(w, "h2", attrs{"style": css{"font-size": "22px", "margin": "0"}.String()}, c.Title)
		if c.Subtitle != "" {
			textTag(w, "p", attrs{"style": css{"margin": "4px 0 0"}.String()}, c.Subtitle)
		}
	case *builder.ImageContent:
		if c.URL != "" {
			open(w, "a", attrs{"href": safeURL(c.URL)})
		}
		emailImage(w, c.Image, c.Alt, strconv.Itoa(EmailWidth-48), css{"border-radius": st.Radius})
		if c.URL != "" {
			closeTag(w, "a")
		}
	case *builder.DividerContent:
		open(w, "hr", attrs{"style": css{"border": "0", "border-top": "1px solid " + st.Text, "margin": "0"}.String()})
	case *builder.TextContent:
		if err := emailMarkdown(w, c.Body); err != nil {
			return err
		}
	case *builder.LogoContent:
		emailImage(w, c.Image, c.Alt, "160", nil)
	case *builder.CountdownContent:
		if c.Title != "" {
			textTag(w, "p", attrs{"style": css{"margin": "0"}.String()}, c.Title)
		}
		textTag(w, "p", attrs{"style": css{"font-size": "20px", "font-weight": "bold", "margin": "4px 0 0"}.String()},
			c.TargetDate.UTC().Format("Monday, January 2, 2006 15:04 UTC"))
	case *builder.LayoutContent:
		n := len(el.Slots)
		open(w, "table", tableAttrs("100%", nil))
		open(w, "tr", nil)
		for i := 0; i < n; i++ {
			open(w, "td", attrs{"valign": "top", "width": strconv.Itoa(100/n) + "%"})
			open(w, "table", tableAttrs("100%", nil))
			if err := exportSeq(w, doc, el.Slot(i)); err != nil {
				return err
			}
			closeTag(w, "table")
			closeTag(w, "td")
		}
		closeTag(w, "tr")
		closeTag(w, "table")
	default:
		emailPlaceholder(w, fmt.Sprintf("Unsupported element %q", el.Kind))
	}
	return nil
}

func emailButton(w *strings.Builder, st ResolvedStyle, title, href, width string) {
	open(w, "table", attrs{
		"role":        "presentation",
		"cellpadding": "0",
		"cellspacing": "0",
		"border":      "0",
		"width":       width,
		"align":       st.Align,
	})
	open(w, "tr", nil)
	open(w, "td", attrs{
		"align":   "center",
		"bgcolor": st.ButtonBackground,
		"style":   css{"border-radius": st.Radius}.String(),
	})
	textTag(w, "a", attrs{"href": safeURL(href), "style": st.button().String()}, title)
	closeTag(w, "td")
	closeTag(w, "tr")
	closeTag(w, "table")
}

func emailImage(w *strings.Builder, src, alt, width string, style css) {
	base := css{"border": "0", "display": "block", "height": "auto", "max-width": "100%", "margin": "0 auto"}
	for k, v := range style {
		base[k] = v
	}
	open(w, "img", attrs{"src": safeURL(src), "alt": alt, "width": width, "style": base.String()})
}

func emailMarkdown(w *strings.Builder, body string) error {
	out, err := markdown.Render(body)
	if err != nil {
		return fmt.Errorf("render text: %w", err)
	}
	w.WriteString(out)
	return nil
}

func emailPlaceholder(w *strings.Builder, msg string) {
	textTag(w, "p", attrs{"style": css{"border": "1px dashed #d1d5db", "color": "#6b7280", "font-size": "12px", "padding": "8px"}.String()}, msg)
}
