package views

import (
	"sort"
	"strings"

	"github.com/eringen/pagecraft/builder"
)

// Theme is a named preset of page colors. Document styles are layered
// over the preset.
type Theme struct {
	Name            string
	Background      string
	Text            string
	ButtonColor     string
	ButtonTextColor string
	FontFamily      string
}

var themes = []Theme{
	{Name: "light", Background: "#ffffff", Text: "#111827", ButtonColor: "#111827", ButtonTextColor: "#ffffff", FontFamily: "Helvetica, Arial, sans-serif"},
	{Name: "dark", Background: "#111827", Text: "#f9fafb", ButtonColor: "#f9fafb", ButtonTextColor: "#111827", FontFamily: "Helvetica, Arial, sans-serif"},
	{Name: "sunset", Background: "#fff1e6", Text: "#3d1f0f", ButtonColor: "#e24e1b", ButtonTextColor: "#ffffff", FontFamily: "Georgia, serif"},
	{Name: "forest", Background: "#ecf4ee", Text: "#14321f", ButtonColor: "#2f6b3f", ButtonTextColor: "#ffffff", FontFamily: "Verdana, sans-serif"},
}

// Themes returns the built-in presets.
func Themes() []Theme {
	return append([]Theme(nil), themes...)
}

func themeFor(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

var radii = map[builder.Radius]string{
	builder.RadiusNone:   "0",
	builder.RadiusSmall:  "4px",
	builder.RadiusMedium: "8px",
	builder.RadiusLarge:  "16px",
	builder.RadiusFull:   "9999px",
}

// RadiusCSS maps a radius bucket to a CSS length. Unknown buckets fall
// back to md.
func RadiusCSS(r builder.Radius) string {
	if v, ok := radii[r]; ok {
		return v
	}
	return radii[builder.RadiusMedium]
}

// PageStyle is the resolved look of the page body.
type PageStyle struct {
	Background      string
	BackgroundImage string
	Text            string
	FontFamily      string
}

// ResolvePage layers document styles over their theme preset.
func ResolvePage(p builder.StyleProps) PageStyle {
	t := themeFor(p.Theme)
	return PageStyle{
		Background:      or(p.Background.Color, t.Background),
		BackgroundImage: p.Background.Image,
		Text:            or(p.TextColor, t.Text),
		FontFamily:      or(p.FontFamily, t.FontFamily),
	}
}

// ResolvedStyle is the final style of one element.
type ResolvedStyle struct {
	Background       string
	Text             string
	ButtonBackground string
	ButtonText       string
	ButtonBorder     string
	Radius           string
	FontFamily       string
	Align            string
}

// Resolve computes an element's style: theme preset, then document
// styles, then the element's own override.
func Resolve(p builder.StyleProps, o *builder.StyleOverride) ResolvedStyle {
	t := themeFor(p.Theme)
	var ov builder.StyleOverride
	if o != nil {
		ov = *o
	}

	button := or(ov.ButtonColor, p.ButtonColor, t.ButtonColor)
	buttonText := or(ov.ButtonTextColor, p.ButtonTextColor, t.ButtonTextColor)
	rs := ResolvedStyle{
		Background:   ov.BackgroundColor,
		Text:         or(ov.TextColor, p.TextColor, t.Text),
		Radius:       RadiusCSS(builder.Radius(or(string(ov.Radius), string(p.Radius)))),
		FontFamily:   or(ov.FontFamily, p.FontFamily, t.FontFamily),
		Align:        or(ov.Align, "center"),
		ButtonBorder: button,
	}
	if p.ButtonMode == builder.ButtonOutline {
		rs.ButtonBackground = "transparent"
		rs.ButtonText = or(ov.ButtonTextColor, button)
	} else {
		rs.ButtonBackground = button
		rs.ButtonText = buttonText
	}
	return rs
}

func or(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// css is an inline style declaration list. String renders it with sorted
// properties and skips empty values, so the same input always yields the
// same attribute.
type css map[string]string

func (c css) String() string {
	keys := make([]string, 0, len(c))
	for k, v := range c {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+c[k])
	}
	return strings.Join(parts, ";")
}

func (s ResolvedStyle) block() css {
	return css{
		"background-color": s.Background,
		"color":            s.Text,
		"font-family":      s.FontFamily,
		"text-align":       s.Align,
		"border-radius":    s.Radius,
	}
}

func (s ResolvedStyle) button() css {
	return css{
		"background-color": s.ButtonBackground,
		"border":           "2px solid " + s.ButtonBorder,
		"border-radius":    s.Radius,
		"color":            s.ButtonText,
		"display":          "inline-block",
		"font-family":      s.FontFamily,
		"padding":          "12px 24px",
		"text-decoration":  "none",
	}
}

func (p PageStyle) body() css {
	c := css{
		"background-color": p.Background,
		"color":            p.Text,
		"font-family":      p.FontFamily,
	}
	if p.BackgroundImage != "" {
		c["background-image"] = "url('" + p.BackgroundImage + "')"
		c["background-size"] = "cover"
	}
	return c
}
