package builder

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("el-%d", n)
	}
}

func newTestDocument() *Document {
	d := NewDocument(DocumentLink, "Test", "test")
	d.IDs = sequentialIDs()
	return d
}

func def(k Kind, defaults Fields) PaletteDefinition {
	return PaletteDefinition{Kind: k, Defaults: defaults}
}

func orders(t *testing.T, d *Document, s Slot) map[string]int {
	t.Helper()
	children, err := d.Children(s)
	require.NoError(t, err)
	out := make(map[string]int, len(children))
	for _, el := range children {
		out[el.ID] = el.Order
	}
	return out
}

func TestInsertAndMoveScenario(t *testing.T) {
	d := newTestDocument()

	header, err := d.InsertElement(Root, def(KindHeader, Fields{"title": "Hello"}))
	require.NoError(t, err)
	assert.Equal(t, 0, header.Order)
	assert.Equal(t, "Hello", header.Content.(*HeaderContent).Title)

	button, err := d.InsertElement(Root, def(KindButton, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, button.Order)

	require.NoError(t, d.MoveElement(button.ID, Root, 0))
	assert.Equal(t, map[string]int{button.ID: 0, header.ID: 1}, orders(t, d, Root))

	children, err := d.Children(Root)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindButton, KindHeader}, []Kind{children[0].Kind, children[1].Kind})
}

func TestInsertUnknownKind(t *testing.T) {
	d := newTestDocument()
	_, err := d.InsertElement(Root, def(Kind("carousel"), nil))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, d.Elements)
}

func TestInsertIntoMissingSlot(t *testing.T) {
	d := newTestDocument()
	text, err := d.InsertElement(Root, def(KindText, Fields{"body": "hi"}))
	require.NoError(t, err)

	_, err = d.InsertElement(Slot{ParentID: "nope"}, def(KindText, nil))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = d.InsertElement(Slot{ParentID: text.ID}, def(KindText, nil))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = d.InsertElement(Slot{Index: 1}, def(KindText, nil))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, d.Elements, 1)
}

func TestUpdateKeepsOtherFields(t *testing.T) {
	d := newTestDocument()
	button, err := d.InsertElement(Root, def(KindButton, Fields{"title": "Buy", "url": "https://a.com"}))
	require.NoError(t, err)

	require.NoError(t, d.UpdateElement(button.ID, Fields{"url": "https://x.com"}))
	c := d.Find(button.ID).Content.(*ButtonContent)
	assert.Equal(t, "Buy", c.Title)
	assert.Equal(t, "https://x.com", c.URL)
}

func TestUpdateMergesStyleByKey(t *testing.T) {
	d := newTestDocument()
	link, err := d.InsertElement(Root, def(KindLink, Fields{"title": "Site", "url": "https://a.com"}))
	require.NoError(t, err)

	require.NoError(t, d.UpdateElement(link.ID, Fields{"style": map[string]any{"backgroundColor": "#fff", "radius": "lg"}}))
	require.NoError(t, d.UpdateElement(link.ID, Fields{"style": map[string]any{"textColor": "#000"}}))

	style := d.Find(link.ID).Style
	require.NotNil(t, style)
	assert.Equal(t, StyleOverride{BackgroundColor: "#fff", TextColor: "#000", Radius: RadiusLarge}, *style)

	require.NoError(t, d.UpdateElement(link.ID, Fields{"style": map[string]any{"backgroundColor": nil, "textColor": nil, "radius": nil}}))
	assert.Nil(t, d.Find(link.ID).Style)
}

func TestUpdateRejections(t *testing.T) {
	d := newTestDocument()
	button, err := d.InsertElement(Root, def(KindButton, Fields{"title": "Buy", "url": "https://a.com"}))
	require.NoError(t, err)
	before := *button.Content.(*ButtonContent)

	tests := []struct {
		name  string
		id    string
		patch Fields
		want  error
	}{
		{"unknown id", "missing", Fields{"title": "x"}, ErrNotFound},
		{"unknown field", button.ID, Fields{"body": "x"}, ErrValidation},
		{"blank required", button.ID, Fields{"title": ""}, ErrValidation},
		{"cleared required", button.ID, Fields{"url": nil}, ErrValidation},
		{"bad url", button.ID, Fields{"url": "javascript:alert(1)"}, ErrValidation},
		{"bad style key", button.ID, Fields{"style": map[string]any{"shadow": "big"}}, ErrValidation},
		{"bad style value", button.ID, Fields{"style": map[string]any{"radius": "huge"}}, ErrValidation},
		{"css injection", button.ID, Fields{"style": map[string]any{"textColor": "red;position:fixed"}}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.UpdateElement(tt.id, tt.patch)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, *d.Find(button.ID).Content.(*ButtonContent))
			assert.Nil(t, d.Find(button.ID).Style)
		})
	}
}

func TestMoveRenumbersSourceAndDestination(t *testing.T) {
	d := newTestDocument()
	cols, err := d.InsertElement(Root, def(KindTwoColumns, nil))
	require.NoError(t, err)
	left := Slot{ParentID: cols.ID, Index: 0}
	right := Slot{ParentID: cols.ID, Index: 1}

	var ids []string
	for i := 0; i < 4; i++ {
		el, err := d.InsertElement(left, def(KindText, Fields{"body": fmt.Sprint(i)}))
		require.NoError(t, err)
		ids = append(ids, el.ID)
	}
	require.NoError(t, d.DeleteElement(ids[1]))
	assert.Equal(t, map[string]int{ids[0]: 0, ids[2]: 2, ids[3]: 3}, orders(t, d, left))

	require.NoError(t, d.MoveElement(ids[2], right, 10))
	assert.Equal(t, map[string]int{ids[0]: 0, ids[3]: 1}, orders(t, d, left))
	assert.Equal(t, map[string]int{ids[2]: 0}, orders(t, d, right))

	require.NoError(t, d.MoveElement(ids[3], right, -5))
	assert.Equal(t, map[string]int{ids[3]: 0, ids[2]: 1}, orders(t, d, right))
}

func TestInsertAfterDeleteKeepsInsertionOrder(t *testing.T) {
	d := newTestDocument()
	a, _ := d.InsertElement(Root, def(KindDivider, nil))
	b, _ := d.InsertElement(Root, def(KindDivider, nil))
	c, _ := d.InsertElement(Root, def(KindDivider, nil))
	require.NoError(t, d.DeleteElement(b.ID))

	e, err := d.InsertElement(Root, def(KindDivider, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, e.Order)

	children, err := d.Children(Root)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID, e.ID}, []string{children[0].ID, children[1].ID, children[2].ID})
}

func TestMoveLayoutIntoItselfRejected(t *testing.T) {
	d := newTestDocument()
	outer, _ := d.InsertElement(Root, def(KindSingleColumn, nil))
	inner, err := d.InsertElement(Slot{ParentID: outer.ID}, def(KindTwoColumns, nil))
	require.NoError(t, err)

	err = d.MoveElement(outer.ID, Slot{ParentID: outer.ID}, 0)
	assert.ErrorIs(t, err, ErrValidation)
	err = d.MoveElement(outer.ID, Slot{ParentID: inner.ID, Index: 1}, 0)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, d.Validate())
	assert.Len(t, d.Elements, 1)
	assert.Equal(t, inner, d.Find(outer.ID).Slots[0][0])
}

func TestDeleteRemovesSubtree(t *testing.T) {
	d := newTestDocument()
	cols, _ := d.InsertElement(Root, def(KindTwoColumns, nil))
	child, err := d.InsertElement(Slot{ParentID: cols.ID, Index: 1}, def(KindHeader, Fields{"title": "x"}))
	require.NoError(t, err)

	require.NoError(t, d.DeleteElement(cols.ID))
	assert.Nil(t, d.Find(child.ID))
	assert.Zero(t, d.Count())
	assert.ErrorIs(t, d.DeleteElement(cols.ID), ErrNotFound)
}

func TestSetGlobalStyle(t *testing.T) {
	d := newTestDocument()
	color := "#123456"
	require.NoError(t, d.SetGlobalStyle(StylePatch{TextColor: &color}))
	assert.Equal(t, "#123456", d.Styles.TextColor)
	assert.Equal(t, RadiusMedium, d.Styles.Radius)

	bad := Radius("round")
	assert.ErrorIs(t, d.SetGlobalStyle(StylePatch{Radius: &bad}), ErrValidation)
	mode := ButtonMode("ghost")
	assert.ErrorIs(t, d.SetGlobalStyle(StylePatch{ButtonMode: &mode}), ErrValidation)
	assert.Equal(t, RadiusMedium, d.Styles.Radius)
	assert.Equal(t, ButtonFill, d.Styles.ButtonMode)
}

func TestCloneIsDeep(t *testing.T) {
	d := newTestDocument()
	cols, _ := d.InsertElement(Root, def(KindSingleColumn, nil))
	text, _ := d.InsertElement(Slot{ParentID: cols.ID}, def(KindText, Fields{"body": "a"}))

	cp := d.Clone()
	require.NoError(t, d.UpdateElement(text.ID, Fields{"body": "b"}))
	assert.Equal(t, "a", cp.Find(text.ID).Content.(*TextContent).Body)
	require.NoError(t, cp.DeleteElement(cols.ID))
	assert.NotNil(t, d.Find(text.ID))
}

func TestReassignGivesFreshIDs(t *testing.T) {
	d := newTestDocument()
	cols, _ := d.InsertElement(Root, def(KindTwoColumns, nil))
	_, _ = d.InsertElement(Slot{ParentID: cols.ID, Index: 1}, def(KindDivider, nil))

	oldID := cols.ID
	n := 0
	d.Reassign(func() string { n++; return fmt.Sprintf("new-%d", n) })
	assert.Equal(t, 2, n)
	assert.NotNil(t, d.Find("new-1"))
	assert.NotNil(t, d.Find("new-2"))
	assert.Nil(t, d.Find(oldID))
	require.NoError(t, d.Validate())
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	d := newTestDocument()
	_, _ = d.InsertElement(Root, def(KindDivider, nil))
	dup := d.Elements[0].clone()
	d.Elements = append(d.Elements, dup)
	assert.ErrorIs(t, d.Validate(), ErrValidation)
}

func TestUnknownElementSurvivesRoundTrip(t *testing.T) {
	raw := `{"id":"d1","ownerId":"o","kind":"link","title":"T","slug":"t","active":true,
		"styles":{"background":{}},
		"elements":[
			{"id":"a","type":"carousel","order":0,"slides":[1,2,3]},
			{"id":"b","type":"header","order":1,"title":"Hi","style":{"align":"center"}},
			{"id":"c","type":"button","order":2,"title":"Go","colour":"red"},
			{"id":"d","type":"layout-two-columns","order":3,"children":[[{"id":"e","type":"divider","order":0}],[]]}
		],
		"createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}`

	d, err := ParseDocument([]byte(raw))
	require.NoError(t, err)
	require.Len(t, d.Elements, 4)

	assert.True(t, d.Elements[0].Unknown())
	assert.Equal(t, KindHeader, d.Elements[1].Kind)
	assert.Equal(t, "center", d.Elements[1].Style.Align)
	assert.True(t, d.Elements[2].Unknown(), "unknown field degrades to a placeholder")
	assert.Equal(t, KindDivider, d.Find("e").Kind)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	again, err := ParseDocument(out)
	require.NoError(t, err)
	second, err := json.Marshal(again)
	require.NoError(t, err)
	assert.JSONEq(t, string(out), string(second))

	var probe struct {
		Elements []map[string]any `json:"elements"`
	}
	require.NoError(t, json.Unmarshal(out, &probe))
	assert.Equal(t, []any{1.0, 2.0, 3.0}, probe.Elements[0]["slides"])
	assert.Equal(t, "red", probe.Elements[2]["colour"])
}

func TestUpdateUnknownElementRejected(t *testing.T) {
	d := newTestDocument()
	d.Elements = append(d.Elements, &Element{ID: "x", Kind: "carousel", Content: &UnknownContent{Type: "carousel"}})
	assert.ErrorIs(t, d.UpdateElement("x", Fields{"title": "t"}), ErrValidation)
}

// collectSlots lists every addressable sequence in d.
func collectSlots(d *Document) []Slot {
	slots := []Slot{Root}
	d.Walk(func(el *Element, _ int) bool {
		for i := range el.Slots {
			slots = append(slots, Slot{ParentID: el.ID, Index: i})
		}
		return true
	})
	return slots
}

func collectIDs(d *Document) []string {
	var ids []string
	d.Walk(func(el *Element, _ int) bool {
		ids = append(ids, el.ID)
		return true
	})
	return ids
}

func TestRandomOperationsKeepTreeSound(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	kinds := []Kind{KindText, KindDivider, KindSingleColumn, KindTwoColumns, KindHeader}

	for run := 0; run < 20; run++ {
		d := newTestDocument()
		inserted := 0
		for step := 0; step < 200; step++ {
			slots := collectSlots(d)
			ids := collectIDs(d)
			switch op := rng.IntN(4); {
			case op <= 1 || len(ids) == 0:
				slot := slots[rng.IntN(len(slots))]
				_, err := d.InsertElement(slot, def(kinds[rng.IntN(len(kinds))], nil))
				require.NoError(t, err)
				inserted++
			case op == 2:
				id := ids[rng.IntN(len(ids))]
				slot := slots[rng.IntN(len(slots))]
				err := d.MoveElement(id, slot, rng.IntN(5))
				if err != nil {
					require.ErrorIs(t, err, ErrValidation)
					require.True(t, d.Find(id).contains(slot.ParentID))
				} else {
					children, err := d.Children(slot)
					require.NoError(t, err)
					for i, el := range children {
						require.Equal(t, i, el.Order)
					}
				}
			default:
				require.NoError(t, d.DeleteElement(ids[rng.IntN(len(ids))]))
			}

			require.NoError(t, d.Validate())
			seen := map[string]bool{}
			for _, id := range collectIDs(d) {
				require.False(t, seen[id], "element %s reachable twice", id)
				seen[id] = true
			}
		}
		assert.Positive(t, inserted)
	}
}
