package builder

import (
	"cmp"
	"slices"
)

// Element is one node of the document tree. Layout kinds own their
// children through Slots; every other kind has nil Slots.
type Element struct {
	ID      string
	Kind    Kind
	Order   int
	Content Content
	Style   *StyleOverride
	Slots   [][]*Element
}

func newElement(id string, k Kind) *Element {
	el := &Element{ID: id, Kind: k, Content: newContent(k)}
	if n := k.Slots(); n > 0 {
		el.Slots = make([][]*Element, n)
	}
	return el
}

// Unknown reports whether the element could not be decoded into a known
// kind and carries raw fields only.
func (e *Element) Unknown() bool {
	_, ok := e.Content.(*UnknownContent)
	return ok
}

// Missing lists required content fields that are empty.
func (e *Element) Missing() []string {
	if e.Content == nil {
		return nil
	}
	return e.Content.Missing()
}

// Slot returns the i-th child sequence sorted by Order.
func (e *Element) Slot(i int) []*Element {
	if i < 0 || i >= len(e.Slots) {
		return nil
	}
	return sorted(e.Slots[i])
}

func (e *Element) clone() *Element {
	cp := &Element{ID: e.ID, Kind: e.Kind, Order: e.Order}
	if e.Content != nil {
		cp.Content = e.Content.clone()
	}
	if e.Style != nil {
		s := *e.Style
		cp.Style = &s
	}
	if e.Slots != nil {
		cp.Slots = make([][]*Element, len(e.Slots))
		for i, seq := range e.Slots {
			cp.Slots[i] = cloneSeq(seq)
		}
	}
	return cp
}

// contains reports whether id names e or one of its descendants.
func (e *Element) contains(id string) bool {
	if e.ID == id {
		return true
	}
	for _, seq := range e.Slots {
		for _, child := range seq {
			if child.contains(id) {
				return true
			}
		}
	}
	return false
}

func cloneSeq(seq []*Element) []*Element {
	if seq == nil {
		return nil
	}
	out := make([]*Element, len(seq))
	for i, el := range seq {
		out[i] = el.clone()
	}
	return out
}

// sorted returns a copy of seq ordered by Order. Equal orders keep their
// insertion sequence.
func sorted(seq []*Element) []*Element {
	out := slices.Clone(seq)
	sortSeq(out)
	return out
}

func sortSeq(seq []*Element) {
	slices.SortStableFunc(seq, func(a, b *Element) int {
		return cmp.Compare(a.Order, b.Order)
	})
}

func renumber(seq []*Element) {
	for i, el := range seq {
		el.Order = i
	}
}
