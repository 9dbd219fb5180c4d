package builder

import (
	"net/url"
	"strings"
	"time"
)

// Fields is a partial content record keyed by JSON field name. A "style"
// key holds a partial StyleOverride.
type Fields map[string]any

// Form inputs for countdown targets.
const (
	datetimeLocal = "2006-01-02T15:04"
	dateOnly      = "2006-01-02"
)

// FieldsFromForm converts an inline-edit form into a patch for kind.
// Keys prefixed "style." go into the style patch, "links" is one social
// link per line written as "platform url", and an empty targetDate clears
// the countdown target. Keys starting with "_" are ignored.
func FieldsFromForm(kind Kind, form url.Values) Fields {
	f := Fields{}
	style := map[string]any{}
	for key, values := range form {
		if len(values) == 0 || strings.HasPrefix(key, "_") {
			continue
		}
		value := strings.TrimSpace(values[0])
		switch {
		case strings.HasPrefix(key, "style."):
			name := strings.TrimPrefix(key, "style.")
			if value == "" {
				style[name] = nil
			} else {
				style[name] = value
			}
		case key == "links" && kind == KindSocials:
			f[key] = parseLinks(value)
		case key == "targetDate" && kind == KindCountdown:
			if t, ok := parseDate(value); ok {
				f[key] = t
			} else {
				f[key] = nil
			}
		default:
			f[key] = value
		}
	}
	if len(style) > 0 {
		f[keyStyle] = style
	}
	return f
}

func parseLinks(text string) []SocialLink {
	links := []SocialLink{}
	for _, line := range strings.Split(text, "\n") {
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		links = append(links, SocialLink{Platform: strings.ToLower(parts[0]), URL: parts[1]})
	}
	return links
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, datetimeLocal, dateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormValues is the inverse of FieldsFromForm for prefilling edit forms.
func FormValues(el *Element) url.Values {
	v := url.Values{}
	switch c := el.Content.(type) {
	case *SocialsContent:
		lines := make([]string, 0, len(c.Links))
		for _, l := range c.Links {
			lines = append(lines, l.Platform+" "+l.URL)
		}
		v.Set("links", strings.Join(lines, "\n"))
	case *CountdownContent:
		v.Set("title", c.Title)
		if c.TargetDate != nil {
			v.Set("targetDate", c.TargetDate.UTC().Format(datetimeLocal))
		}
	case *UnknownContent, *LayoutContent, nil:
	default:
		fields, err := contentFields(c)
		if err == nil {
			for k, raw := range fields {
				var s string
				if jsonString(raw, &s) {
					v.Set(k, s)
				}
			}
		}
	}
	if el.Style != nil {
		s := el.Style
		for k, val := range map[string]string{
			"backgroundColor": s.BackgroundColor,
			"textColor":       s.TextColor,
			"buttonColor":     s.ButtonColor,
			"buttonTextColor": s.ButtonTextColor,
			"radius":          string(s.Radius),
			"fontFamily":      s.FontFamily,
			"align":           s.Align,
		} {
			if val != "" {
				v.Set("style."+k, val)
			}
		}
	}
	return v
}
