package builder

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Slot addresses one ordered child sequence. An empty ParentID is the
// document root, which has a single sequence at Index 0.
type Slot struct {
	ParentID string `json:"parentId,omitempty"`
	Index    int    `json:"index"`
}

// Root is the document's root sequence.
var Root = Slot{}

func (s Slot) String() string {
	if s.ParentID == "" {
		return "root"
	}
	return fmt.Sprintf("%s/%d", s.ParentID, s.Index)
}

func (d *Document) sequence(s Slot) (*[]*Element, error) {
	if s.ParentID == "" {
		if s.Index != 0 {
			return nil, fmt.Errorf("%w: slot %s", ErrNotFound, s)
		}
		return &d.Elements, nil
	}
	parent, _ := d.locate(s.ParentID)
	if parent == nil {
		return nil, fmt.Errorf("%w: parent %s", ErrNotFound, s.ParentID)
	}
	if !parent.Kind.IsLayout() || s.Index < 0 || s.Index >= len(parent.Slots) {
		return nil, fmt.Errorf("%w: slot %s", ErrNotFound, s)
	}
	return &parent.Slots[s.Index], nil
}

// locate finds id and the slot that holds it.
func (d *Document) locate(id string) (*Element, Slot) {
	var found *Element
	var at Slot
	var search func(seq []*Element, s Slot) bool
	search = func(seq []*Element, s Slot) bool {
		for _, el := range seq {
			if el.ID == id {
				found, at = el, s
				return true
			}
			for i, child := range el.Slots {
				if search(child, Slot{ParentID: el.ID, Index: i}) {
					return true
				}
			}
		}
		return false
	}
	search(d.Elements, Root)
	return found, at
}

// Find returns the element with id, or nil.
func (d *Document) Find(id string) *Element {
	el, _ := d.locate(id)
	return el
}

// SlotOf returns the slot holding id.
func (d *Document) SlotOf(id string) (Slot, error) {
	el, s := d.locate(id)
	if el == nil {
		return Slot{}, fmt.Errorf("%w: element %s", ErrNotFound, id)
	}
	return s, nil
}

// HasSlot reports whether s addresses an existing sequence.
func (d *Document) HasSlot(s Slot) bool {
	_, err := d.sequence(s)
	return err == nil
}

// Children returns the elements of s sorted by Order.
func (d *Document) Children(s Slot) ([]*Element, error) {
	seq, err := d.sequence(s)
	if err != nil {
		return nil, err
	}
	return sorted(*seq), nil
}

// InsertElement appends a new element built from def to s. Its order is
// the number of siblings already in s.
func (d *Document) InsertElement(s Slot, def PaletteDefinition) (*Element, error) {
	if !def.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown palette kind %q", ErrValidation, def.Kind)
	}
	seq, err := d.sequence(s)
	if err != nil {
		return nil, err
	}
	el, err := def.NewElement(d.newID())
	if err != nil {
		return nil, err
	}
	if d.Find(el.ID) != nil {
		return nil, fmt.Errorf("%w: duplicate element id %s", ErrValidation, el.ID)
	}
	el.Order = len(*seq)
	*seq = append(*seq, el)
	return el, nil
}

// UpdateElement merges patch into the element's content. A "style" key is
// merged field by field into the element's style override. Nil values
// clear a field. The element is left untouched when the merged result
// does not validate.
func (d *Document) UpdateElement(id string, patch Fields) error {
	el := d.Find(id)
	if el == nil {
		return fmt.Errorf("%w: element %s", ErrNotFound, id)
	}
	if el.Unknown() {
		return fmt.Errorf("%w: element %s has unsupported type %q", ErrValidation, id, el.Kind)
	}

	current, err := contentFields(el.Content)
	if err != nil {
		return err
	}
	style := el.Style
	for key, value := range patch {
		if key == keyStyle {
			if style, err = mergeStyle(el.Style, value); err != nil {
				return fmt.Errorf("%w: element %s style: %v", ErrValidation, id, err)
			}
			continue
		}
		if value == nil {
			delete(current, key)
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrValidation, key, err)
		}
		current[key] = raw
	}

	content, err := decodeContent(el.Kind, current)
	if err != nil {
		return fmt.Errorf("%w: element %s: %v", ErrValidation, id, err)
	}
	for _, name := range content.Missing() {
		if _, touched := patch[name]; touched {
			return fmt.Errorf("%w: element %s: %s is required", ErrValidation, id, name)
		}
	}
	if err := content.Validate(); err != nil {
		return fmt.Errorf("%w: element %s: %v", ErrValidation, id, err)
	}

	el.Content = content
	el.Style = style
	return nil
}

// mergeStyle overlays the keys of patch onto base. The result is nil when
// no field remains set.
func mergeStyle(base *StyleOverride, patch any) (*StyleOverride, error) {
	fields := map[string]json.RawMessage{}
	if base != nil {
		raw, err := json.Marshal(base)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
	}
	if patch != nil {
		raw, err := json.Marshal(patch)
		if err != nil {
			return nil, err
		}
		var over map[string]json.RawMessage
		if err := json.Unmarshal(raw, &over); err != nil {
			return nil, err
		}
		for k, v := range over {
			if string(v) == "null" {
				delete(fields, k)
				continue
			}
			fields[k] = v
		}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var merged StyleOverride
	if err := decodeStrict(raw, &merged); err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if merged.IsZero() {
		return nil, nil
	}
	return &merged, nil
}

// MoveElement detaches id and reattaches it at index in s. Both the
// source and destination sequences are renumbered 0..n-1. Index is
// clamped to the destination bounds.
func (d *Document) MoveElement(id string, s Slot, index int) error {
	el, from := d.locate(id)
	if el == nil {
		return fmt.Errorf("%w: element %s", ErrNotFound, id)
	}
	if s.ParentID != "" && el.contains(s.ParentID) {
		return fmt.Errorf("%w: cannot move %s into itself", ErrValidation, id)
	}
	dst, err := d.sequence(s)
	if err != nil {
		return err
	}
	src, err := d.sequence(from)
	if err != nil {
		return err
	}

	sortSeq(*src)
	*src = slices.DeleteFunc(*src, func(e *Element) bool { return e == el })
	renumber(*src)

	sortSeq(*dst)
	index = max(0, min(index, len(*dst)))
	*dst = slices.Insert(*dst, index, el)
	renumber(*dst)
	return nil
}

// DeleteElement removes id and its whole subtree. Surviving siblings keep
// their order values.
func (d *Document) DeleteElement(id string) error {
	el, from := d.locate(id)
	if el == nil {
		return fmt.Errorf("%w: element %s", ErrNotFound, id)
	}
	seq, err := d.sequence(from)
	if err != nil {
		return err
	}
	*seq = slices.DeleteFunc(*seq, func(e *Element) bool { return e == el })
	return nil
}

// SetGlobalStyle merges patch into the document styles.
func (d *Document) SetGlobalStyle(patch StylePatch) error {
	next := d.Styles
	patch.apply(&next)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: styles: %v", ErrValidation, err)
	}
	d.Styles = next
	return nil
}
