package views

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// attrs is an attribute set written in sorted key order. Empty values are
// dropped except for the names in keepEmpty.
type attrs map[string]string

var keepEmpty = map[string]bool{"alt": true, "value": true}

func (a attrs) String() string {
	keys := make([]string, 0, len(a))
	for k, v := range a {
		if v != "" || keepEmpty[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(esc(a[k]))
		b.WriteByte('"')
	}
	return b.String()
}

func open(w *strings.Builder, tag string, a attrs) {
	w.WriteByte('<')
	w.WriteString(tag)
	w.WriteString(a.String())
	w.WriteByte('>')
}

func closeTag(w *strings.Builder, tag string) {
	w.WriteString("</")
	w.WriteString(tag)
	w.WriteByte('>')
}

// textTag writes <tag attrs>text</tag> with text escaped.
func textTag(w *strings.Builder, tag string, a attrs, text string) {
	open(w, tag, a)
	w.WriteString(esc(text))
	closeTag(w, tag)
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// safeURL drops schemes other than http, https, mailto and tel.
func safeURL(u string) string {
	return string(templ.URL(u))
}

// hxVals encodes htmx request values. encoding/json sorts map keys.
func hxVals(v map[string]string) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
