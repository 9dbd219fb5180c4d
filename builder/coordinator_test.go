package builder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropPaletteItem(t *testing.T) {
	d := newTestDocument()
	first, _ := d.InsertElement(Root, def(KindDivider, nil))
	second, _ := d.InsertElement(Root, def(KindDivider, nil))

	var c Coordinator
	require.NoError(t, c.StartPalette(def(KindHeader, Fields{"title": "New"})))
	assert.Equal(t, Dragging, c.State())

	el, err := c.Drop(d, DropTarget{Slot: Root, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, Idle, c.State())
	assert.Nil(t, c.Payload())
	assert.Equal(t, map[string]int{first.ID: 0, el.ID: 1, second.ID: 2}, orders(t, d, Root))
}

func TestDropPaletteItemAppends(t *testing.T) {
	d := newTestDocument()
	_, _ = d.InsertElement(Root, def(KindDivider, nil))

	var c Coordinator
	require.NoError(t, c.StartPalette(def(KindText, nil)))
	el, err := c.Drop(d, DropTarget{Slot: Root, Index: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, el.Order)
}

func TestDropExistingElementIntoLayout(t *testing.T) {
	d := newTestDocument()
	cols, _ := d.InsertElement(Root, def(KindTwoColumns, nil))
	text, _ := d.InsertElement(Root, def(KindText, Fields{"body": "move me"}))

	var c Coordinator
	require.NoError(t, c.StartElement(d, text.ID))
	assert.Equal(t, ElementPayload{ElementID: text.ID, Origin: Root}, c.Payload())

	target := DropTarget{Slot: Slot{ParentID: cols.ID, Index: 1}, Index: -1}
	assert.True(t, c.Accepts(d, target))
	_, err := c.Drop(d, target)
	require.NoError(t, err)

	slot, err := d.SlotOf(text.ID)
	require.NoError(t, err)
	assert.Equal(t, target.Slot, slot)
	assert.Len(t, d.Elements, 1)
	assert.Equal(t, 0, d.Elements[0].Order)
}

func TestDropMovesDownWithinSlot(t *testing.T) {
	cases := []struct {
		zone int
		want []string
	}{
		{zone: 0, want: []string{"A", "B", "C"}},
		{zone: 1, want: []string{"A", "B", "C"}},
		{zone: 2, want: []string{"B", "A", "C"}},
		{zone: 3, want: []string{"B", "C", "A"}},
		{zone: -1, want: []string{"B", "C", "A"}},
	}
	for _, tt := range cases {
		d := newTestDocument()
		a, _ := d.InsertElement(Root, def(KindHeader, Fields{"title": "A"}))
		_, _ = d.InsertElement(Root, def(KindHeader, Fields{"title": "B"}))
		_, _ = d.InsertElement(Root, def(KindHeader, Fields{"title": "C"}))

		var c Coordinator
		require.NoError(t, c.StartElement(d, a.ID))
		_, err := c.Drop(d, DropTarget{Slot: Root, Index: tt.zone})
		require.NoError(t, err)
		assert.Equal(t, tt.want, headerTitles(t, d), "zone %d", tt.zone)
	}
}

func TestDropMovesUpWithinSlot(t *testing.T) {
	d := newTestDocument()
	_, _ = d.InsertElement(Root, def(KindHeader, Fields{"title": "A"}))
	_, _ = d.InsertElement(Root, def(KindHeader, Fields{"title": "B"}))
	last, _ := d.InsertElement(Root, def(KindHeader, Fields{"title": "C"}))

	var c Coordinator
	require.NoError(t, c.StartElement(d, last.ID))
	_, err := c.Drop(d, DropTarget{Slot: Root, Index: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, headerTitles(t, d))
}

func headerTitles(t *testing.T, d *Document) []string {
	t.Helper()
	children, err := d.Children(Root)
	require.NoError(t, err)
	out := make([]string, len(children))
	for i, el := range children {
		out[i] = el.Content.(*HeaderContent).Title
	}
	return out
}

func TestDropLayoutOnItselfRejected(t *testing.T) {
	d := newTestDocument()
	outer, _ := d.InsertElement(Root, def(KindSingleColumn, nil))
	inner, _ := d.InsertElement(Slot{ParentID: outer.ID}, def(KindTwoColumns, nil))
	before := mustJSON(t, d)

	for _, slot := range []Slot{{ParentID: outer.ID}, {ParentID: inner.ID, Index: 0}, {ParentID: inner.ID, Index: 1}} {
		var c Coordinator
		require.NoError(t, c.StartElement(d, outer.ID))
		target := DropTarget{Slot: slot, Index: 0}
		assert.False(t, c.Accepts(d, target))

		_, err := c.Drop(d, target)
		assert.ErrorIs(t, err, ErrInvalidDrop)
		assert.Equal(t, Idle, c.State())
		assert.JSONEq(t, before, mustJSON(t, d))
	}
}

func TestDropOnMissingSlotRejected(t *testing.T) {
	d := newTestDocument()
	var c Coordinator
	require.NoError(t, c.StartPalette(def(KindText, nil)))
	_, err := c.Drop(d, DropTarget{Slot: Slot{ParentID: "gone"}})
	assert.ErrorIs(t, err, ErrInvalidDrop)
	assert.Equal(t, Idle, c.State())
	assert.Empty(t, d.Elements)
}

func TestDropWhileIdle(t *testing.T) {
	var c Coordinator
	_, err := c.Drop(newTestDocument(), DropTarget{Slot: Root})
	assert.ErrorIs(t, err, ErrInvalidDrop)
	assert.False(t, c.Accepts(newTestDocument(), DropTarget{Slot: Root}))
}

func TestStartReplacesPayloadAndCancel(t *testing.T) {
	d := newTestDocument()
	text, _ := d.InsertElement(Root, def(KindText, nil))

	var c Coordinator
	require.NoError(t, c.StartPalette(def(KindDivider, nil)))
	require.NoError(t, c.StartElement(d, text.ID))
	_, isElement := c.Payload().(ElementPayload)
	assert.True(t, isElement)

	c.Cancel()
	assert.Equal(t, Idle, c.State())
	assert.Len(t, d.Elements, 1)

	assert.ErrorIs(t, c.StartElement(d, "missing"), ErrNotFound)
	assert.ErrorIs(t, c.StartPalette(def("nope", nil)), ErrValidation)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
