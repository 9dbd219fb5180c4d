package builder

import (
	"fmt"
	"slices"
)

// DragState is the coordinator's state.
type DragState int

const (
	Idle DragState = iota
	Dragging
)

func (s DragState) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Payload is what is being dragged: a PalettePayload or an ElementPayload.
type Payload interface {
	payload()
}

// PalettePayload drags a new element out of the palette.
type PalettePayload struct {
	Definition PaletteDefinition
}

// ElementPayload drags an element that already exists in the document.
type ElementPayload struct {
	ElementID string
	Origin    Slot
}

func (PalettePayload) payload() {}
func (ElementPayload) payload() {}

// DropTarget is a candidate drop zone. A negative Index appends.
type DropTarget struct {
	Slot  Slot
	Index int
}

// Coordinator tracks one in-flight drag and resolves it against a drop
// target. It is not safe for concurrent use; the owning Session
// serializes access.
type Coordinator struct {
	state   DragState
	payload Payload
}

// State returns the current state.
func (c *Coordinator) State() DragState { return c.state }

// Payload returns the in-flight payload, or nil when idle.
func (c *Coordinator) Payload() Payload { return c.payload }

// StartPalette begins dragging def. A drag already in flight is replaced.
func (c *Coordinator) StartPalette(def PaletteDefinition) error {
	if !def.Kind.Valid() {
		return fmt.Errorf("%w: unknown palette kind %q", ErrValidation, def.Kind)
	}
	c.state, c.payload = Dragging, PalettePayload{Definition: def}
	return nil
}

// StartElement begins dragging the existing element id.
func (c *Coordinator) StartElement(doc *Document, id string) error {
	origin, err := doc.SlotOf(id)
	if err != nil {
		return err
	}
	c.state, c.payload = Dragging, ElementPayload{ElementID: id, Origin: origin}
	return nil
}

// Accepts reports whether dropping the current payload on t is allowed.
// The slot must exist, and an element may not be dropped into itself or
// any of its descendants.
func (c *Coordinator) Accepts(doc *Document, t DropTarget) bool {
	if c.state != Dragging || !doc.HasSlot(t.Slot) {
		return false
	}
	if p, ok := c.payload.(ElementPayload); ok {
		el := doc.Find(p.ElementID)
		if el == nil {
			return false
		}
		if t.Slot.ParentID != "" && el.contains(t.Slot.ParentID) {
			return false
		}
	}
	return true
}

// Drop commits the payload at t and returns the inserted or moved element.
// The coordinator is idle afterwards whether or not the drop succeeded;
// a rejected drop leaves the document unchanged.
func (c *Coordinator) Drop(doc *Document, t DropTarget) (*Element, error) {
	defer c.Cancel()
	if c.state != Dragging {
		return nil, fmt.Errorf("%w: nothing is being dragged", ErrInvalidDrop)
	}
	if !c.Accepts(doc, t) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDrop, t.Slot)
	}

	switch p := c.payload.(type) {
	case PalettePayload:
		siblings, err := doc.Children(t.Slot)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDrop, err)
		}
		el, err := doc.InsertElement(t.Slot, p.Definition)
		if err != nil {
			return nil, err
		}
		if t.Index >= 0 && t.Index < len(siblings) {
			if err := doc.MoveElement(el.ID, t.Slot, t.Index); err != nil {
				return nil, err
			}
		}
		return el, nil
	case ElementPayload:
		el := doc.Find(p.ElementID)
		siblings, _ := doc.Children(t.Slot)
		index := t.Index
		if index < 0 {
			index = len(siblings)
		}
		// Zones are numbered with the dragged element still in place.
		if from, err := doc.SlotOf(p.ElementID); err == nil && from == t.Slot {
			if pos := slices.Index(siblings, el); pos >= 0 && pos < index {
				index--
			}
		}
		if err := doc.MoveElement(p.ElementID, t.Slot, index); err != nil {
			return nil, err
		}
		return el, nil
	}
	return nil, fmt.Errorf("%w: unsupported payload", ErrInvalidDrop)
}

// Cancel abandons the drag without touching the document.
func (c *Coordinator) Cancel() {
	c.state, c.payload = Idle, nil
}
