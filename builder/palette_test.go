package builder

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPaletteCoversCatalog(t *testing.T) {
	p := DefaultPalette()
	for _, k := range Kinds() {
		d, ok := p.Lookup(k)
		require.True(t, ok, "missing palette entry for %s", k)
		el, err := d.NewElement("x")
		require.NoError(t, err)
		assert.Equal(t, k, el.Content.Kind())
		assert.Len(t, el.Slots, k.Slots())
	}
	assert.Equal(t, []string{GroupElement, GroupLayout}, p.Groups())
	assert.Len(t, p.Group(GroupLayout), 2)
}

func TestPaletteDefaults(t *testing.T) {
	p := DefaultPalette()

	d, _ := p.Lookup(KindCountdown)
	el, err := d.NewElement("c")
	require.NoError(t, err)
	c := el.Content.(*CountdownContent)
	require.NotNil(t, c.TargetDate)
	assert.Equal(t, 2030, c.TargetDate.Year())

	d, _ = p.Lookup(KindSocials)
	el, err = d.NewElement("s")
	require.NoError(t, err)
	assert.Len(t, el.Content.(*SocialsContent).Links, 2)

	d, _ = p.Lookup(KindLogo)
	el, err = d.NewElement("l")
	require.NoError(t, err)
	require.NotNil(t, el.Style)
	assert.Equal(t, "center", el.Style.Align)
}

func TestParsePaletteRejectsBadEntries(t *testing.T) {
	_, err := ParsePalette([]byte("elements:\n  - kind: carousel\n"))
	assert.Error(t, err)
	_, err = ParsePalette([]byte("elements:\n  - kind: text\n  - kind: text\n"))
	assert.Error(t, err)
	_, err = ParsePalette([]byte("elements:\n  - kind: text\n    defaults:\n      colour: red\n"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParsePalette([]byte("elements:\n  - kind: text\n    style:\n      textColor: not-a-color\n"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParsePalette([]byte("elements:\n  - kind: text\n    style:\n      align: sideways\n"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFieldsFromForm(t *testing.T) {
	form := url.Values{
		"title":           {" Launch "},
		"targetDate":      {"2031-02-03T04:05"},
		"style.textColor": {"#fff"},
		"style.radius":    {""},
		"_csrf":           {"token"},
	}
	f := FieldsFromForm(KindCountdown, form)
	assert.Equal(t, "Launch", f["title"])
	assert.Equal(t, time.Date(2031, 2, 3, 4, 5, 0, 0, time.UTC), f["targetDate"])
	assert.Equal(t, map[string]any{"textColor": "#fff", "radius": nil}, f["style"])
	assert.NotContains(t, f, "_csrf")

	f = FieldsFromForm(KindSocials, url.Values{"links": {"github https://github.com/a\n\nbad\nX https://x.com/a"}})
	assert.Equal(t, []SocialLink{
		{Platform: "github", URL: "https://github.com/a"},
		{Platform: "x", URL: "https://x.com/a"},
	}, f["links"])
}

func TestFormValuesPrefillsEditForm(t *testing.T) {
	d := newTestDocument()
	el, err := d.InsertElement(Root, def(KindLink, Fields{"title": "Site", "url": "https://a.com"}))
	require.NoError(t, err)
	require.NoError(t, d.UpdateElement(el.ID, Fields{"style": map[string]any{"align": "right"}}))

	v := FormValues(d.Find(el.ID))
	assert.Equal(t, "Site", v.Get("title"))
	assert.Equal(t, "https://a.com", v.Get("url"))
	assert.Equal(t, "right", v.Get("style.align"))

	require.NoError(t, d.UpdateElement(el.ID, FieldsFromForm(KindLink, v)))
	assert.Equal(t, "Site", d.Find(el.ID).Content.(*LinkContent).Title)
}
