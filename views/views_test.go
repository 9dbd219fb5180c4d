package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pagecraft/builder"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func testDoc(t *testing.T, kind builder.DocumentKind) *builder.Document {
	t.Helper()
	n := 0
	d := builder.NewDocument(kind, "Launch", "launch")
	d.IDs = func() string { n++; return fmt.Sprintf("e%d", n) }
	p := builder.DefaultPalette()
	insert := func(slot builder.Slot, k builder.Kind, fields builder.Fields) *builder.Element {
		def, _ := p.Lookup(k)
		el, err := d.InsertElement(slot, def)
		require.NoError(t, err)
		if fields != nil {
			require.NoError(t, d.UpdateElement(el.ID, fields))
		}
		return el
	}
	insert(builder.Root, builder.KindHeader, builder.Fields{"title": "Hello"})
	insert(builder.Root, builder.KindButton, builder.Fields{"title": "Buy", "url": "https://shop.example.com", "style": map[string]any{"buttonColor": "#ff0000"}})
	cols := insert(builder.Root, builder.KindTwoColumns, nil)
	insert(builder.Slot{ParentID: cols.ID, Index: 0}, builder.KindText, builder.Fields{"body": "Left **side**"})
	insert(builder.Slot{ParentID: cols.ID, Index: 1}, builder.KindText, builder.Fields{"body": "Right side"})
	return d
}

func TestExportIsIdempotent(t *testing.T) {
	d := testDoc(t, builder.DocumentEmail)
	first, err := ExportHTML(d)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ExportHTML(d)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
	clone, err := ExportHTML(d.Clone())
	require.NoError(t, err)
	assert.Equal(t, first, clone)
}

func TestExportWalksInOrderWithInlineStyles(t *testing.T) {
	d := testDoc(t, builder.DocumentEmail)
	out, err := ExportHTML(d)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	hello := strings.Index(out, "Hello")
	buy := strings.Index(out, ">Buy<")
	left := strings.Index(out, "<strong>side</strong>")
	right := strings.Index(out, "Right side")
	require.True(t, hello > 0 && buy > 0 && left > 0 && right > 0, out)
	assert.Less(t, hello, buy)
	assert.Less(t, buy, left)
	assert.Less(t, left, right)

	assert.Contains(t, out, `bgcolor="#ff0000"`)
	assert.Contains(t, out, "background-color:#ff0000;border:2px solid #ff0000;border-radius:8px")
	assert.NotContains(t, out, "<style")
	assert.NotContains(t, out, "hx-")

	// Moving the button first changes the export.
	buttonID := d.Elements[1].ID
	require.NoError(t, d.MoveElement(buttonID, builder.Root, 0))
	moved, err := ExportHTML(d)
	require.NoError(t, err)
	assert.Less(t, strings.Index(moved, ">Buy<"), strings.Index(moved, "Hello"))
}

func TestPublicHasNoEditorAffordances(t *testing.T) {
	d := testDoc(t, builder.DocumentLink)
	out := render(t, Public(d))
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, `href="https://shop.example.com"`)
	for _, attr := range []string{"data-element-id", "hx-post", "pc-drop", "draggable", "pc-toolbar"} {
		assert.NotContains(t, out, attr)
	}
}

func TestCanvasAndPublicShareStructure(t *testing.T) {
	d := testDoc(t, builder.DocumentLink)
	v := builder.View{SessionID: "s1", Document: d, Palette: builder.DefaultPalette(), Selection: builder.Selection{ElementID: "e2"}}
	canvas := render(t, Canvas(v))
	public := render(t, Public(d))

	assert.Contains(t, canvas, `id="pc-canvas"`)
	assert.Contains(t, canvas, `class="pc-el pc-selected" data-element-id="e2"`)
	assert.Equal(t, 5, strings.Count(canvas, "data-element-id="))
	// root has three elements and four drop positions; each column has one
	// element and two drop positions.
	assert.Equal(t, 8, strings.Count(canvas, `class="pc-drop"`))
	assert.Contains(t, canvas, `hx-post="/admin/edit/s1/drag/drop"`)
	assert.Contains(t, canvas, "All changes saved")

	for _, block := range []string{"pc-block pc-header", "pc-button", "pc-layout pc-cols-2", "<strong>side</strong>"} {
		assert.Contains(t, canvas, block)
		assert.Contains(t, public, block)
	}
}

func TestCanvasShowsEditFormAndSaveError(t *testing.T) {
	d := testDoc(t, builder.DocumentLink)
	v := builder.View{
		SessionID: "s1",
		Document:  d,
		Palette:   builder.DefaultPalette(),
		Editing:   &builder.EditBuffer{ElementID: "e1", Fields: builder.Fields{"title": "Staged"}},
		Dirty:     true,
		SaveError: errors.New("connection reset"),
	}
	out := render(t, Canvas(v))
	assert.Contains(t, out, `hx-post="/admin/edit/s1/edit/commit"`)
	assert.Contains(t, out, `name="title"`)
	assert.Contains(t, out, `value="Staged"`)
	assert.Contains(t, out, "Save failed: connection reset")
}

func TestPlaceholders(t *testing.T) {
	d := builder.NewDocument(builder.DocumentEmail, "t", "t")
	d.Elements = []*builder.Element{
		{ID: "a", Kind: "carousel", Order: 0, Content: &builder.UnknownContent{Type: "carousel"}},
		{ID: "b", Kind: builder.KindButton, Order: 1, Content: &builder.ButtonContent{Title: "no url"}},
		{ID: "c", Kind: builder.KindHeader, Order: 2, Content: &builder.HeaderContent{Title: "Still here"}},
	}

	public := render(t, Public(d))
	assert.Contains(t, public, `Unsupported element &#34;carousel&#34;`)
	assert.Contains(t, public, "button: missing url")
	assert.Contains(t, public, "Still here")

	out, err := ExportHTML(d)
	require.NoError(t, err)
	assert.Contains(t, out, "button: missing url")
	assert.Contains(t, out, "Still here")
}

func TestUnsafeValuesAreNeutralized(t *testing.T) {
	d := builder.NewDocument(builder.DocumentLink, "t", "t")
	d.Elements = []*builder.Element{
		{ID: "a", Kind: builder.KindButton, Content: &builder.ButtonContent{Title: "<script>x</script>", URL: "javascript:alert(1)"}},
	}
	out := render(t, Public(d))
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "<script>x")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestResolveLayersOverrideOverGlobals(t *testing.T) {
	p := builder.StyleProps{Theme: "dark", TextColor: "#cccccc", ButtonColor: "#00ff00", Radius: builder.RadiusLarge}

	base := Resolve(p, nil)
	assert.Equal(t, "#cccccc", base.Text)
	assert.Equal(t, "#00ff00", base.ButtonBackground)
	assert.Equal(t, "#111827", base.ButtonText, "falls back to the theme")
	assert.Equal(t, "16px", base.Radius)
	assert.Equal(t, "center", base.Align)

	over := Resolve(p, &builder.StyleOverride{TextColor: "#000000", Radius: builder.RadiusNone, Align: "left"})
	assert.Equal(t, "#000000", over.Text)
	assert.Equal(t, "0", over.Radius)
	assert.Equal(t, "left", over.Align)
	assert.Equal(t, "#00ff00", over.ButtonBackground)

	p.ButtonMode = builder.ButtonOutline
	outline := Resolve(p, nil)
	assert.Equal(t, "transparent", outline.ButtonBackground)
	assert.Equal(t, "#00ff00", outline.ButtonText)
	assert.Equal(t, "#00ff00", outline.ButtonBorder)

	page := ResolvePage(builder.StyleProps{Theme: "unknown", Background: builder.Background{Image: "/uploads/bg.jpg"}})
	assert.Equal(t, "#ffffff", page.Background)
	assert.Contains(t, page.body().String(), "background-image:url('/uploads/bg.jpg')")
}

func TestCSSIsSorted(t *testing.T) {
	c := css{"z-index": "1", "color": "red", "align": "", "background": "blue"}
	assert.Equal(t, "background:blue;color:red;z-index:1", c.String())
}

func TestPages(t *testing.T) {
	cfg := SiteConfig{Name: "pagecraft", URL: "https://pages.example.com"}

	nf := render(t, NotFound(cfg))
	assert.Contains(t, nf, "Page not found")
	assert.Contains(t, nf, "noindex")

	d := testDoc(t, builder.DocumentLink)
	pub := render(t, PublicPage(cfg, d))
	assert.Contains(t, pub, `<link href="https://pages.example.com/p/launch/" rel="canonical">`)
	assert.Contains(t, pub, "application/ld+json")
	assert.Contains(t, pub, "Hello")

	v := builder.View{SessionID: "s9", Document: d, Palette: builder.DefaultPalette()}
	ed := render(t, EditorPage(cfg, v, "tok"))
	assert.Contains(t, ed, `hx-headers="{&#34;X-CSRF-Token&#34;:&#34;tok&#34;}"`)
	assert.Contains(t, ed, `data-kind="layout-two-columns"`)
	assert.Contains(t, ed, `id="pc-styles"`)
	assert.NotContains(t, ed, "Export HTML")

	d.Kind = builder.DocumentEmail
	assert.Contains(t, render(t, EditorPage(cfg, v, "tok")), "Export HTML")
}

func TestSummary(t *testing.T) {
	d := testDoc(t, builder.DocumentLink)
	assert.Equal(t, "Left **side**", Summary(d, 160))
	assert.Equal(t, "Left…", Summary(d, 5))
}
