package builder

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Keys the element envelope owns. All other keys are content fields.
const (
	keyID       = "id"
	keyType     = "type"
	keyOrder    = "order"
	keyStyle    = "style"
	keyChildren = "children"
)

// MarshalJSON writes the flat persisted layout:
// {id, type, order, ...fields, style?, children?}.
func (e *Element) MarshalJSON() ([]byte, error) {
	obj := map[string]json.RawMessage{}

	if u, ok := e.Content.(*UnknownContent); ok {
		for k, v := range u.Fields {
			obj[k] = v
		}
	} else if e.Content != nil {
		fields, err := contentFields(e.Content)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", e.ID, err)
		}
		for k, v := range fields {
			obj[k] = v
		}
		if e.Style != nil && !e.Style.IsZero() {
			raw, err := json.Marshal(e.Style)
			if err != nil {
				return nil, err
			}
			obj[keyStyle] = raw
		}
		if e.Kind.IsLayout() {
			slots := make([][]*Element, e.Kind.Slots())
			for i := range slots {
				if i < len(e.Slots) {
					slots[i] = sorted(e.Slots[i])
				}
				if slots[i] == nil {
					slots[i] = []*Element{}
				}
			}
			raw, err := json.Marshal(slots)
			if err != nil {
				return nil, err
			}
			obj[keyChildren] = raw
		}
	}

	var err error
	if obj[keyID], err = json.Marshal(e.ID); err != nil {
		return nil, err
	}
	if obj[keyType], err = json.Marshal(string(e.Kind)); err != nil {
		return nil, err
	}
	if obj[keyOrder], err = json.Marshal(e.Order); err != nil {
		return nil, err
	}
	// encoding/json sorts map keys, so output is stable.
	return json.Marshal(obj)
}

// UnmarshalJSON reads the persisted layout. An element whose type is not
// in the catalog, or whose fields do not decode, becomes UnknownContent
// instead of failing the whole document.
func (e *Element) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	var typ string
	if raw, ok := obj[keyID]; ok {
		if err := json.Unmarshal(raw, &e.ID); err != nil {
			return fmt.Errorf("element id: %w", err)
		}
	}
	if raw, ok := obj[keyType]; ok {
		if err := json.Unmarshal(raw, &typ); err != nil {
			return fmt.Errorf("element %s type: %w", e.ID, err)
		}
	}
	if raw, ok := obj[keyOrder]; ok {
		if err := json.Unmarshal(raw, &e.Order); err != nil {
			return fmt.Errorf("element %s order: %w", e.ID, err)
		}
	}
	delete(obj, keyID)
	delete(obj, keyType)
	delete(obj, keyOrder)

	e.Kind = Kind(typ)
	e.Style = nil
	e.Slots = nil

	unknown := func(reason string) error {
		e.Content = &UnknownContent{Type: typ, Fields: obj, Reason: reason}
		return nil
	}
	if !e.Kind.Valid() {
		return unknown("unknown element type")
	}

	fields := make(map[string]json.RawMessage, len(obj))
	for k, v := range obj {
		fields[k] = v
	}

	var style *StyleOverride
	if raw, ok := fields[keyStyle]; ok {
		style = &StyleOverride{}
		if err := decodeStrict(raw, style); err != nil {
			return unknown("invalid style: " + err.Error())
		}
		delete(fields, keyStyle)
	}

	var slots [][]*Element
	if raw, ok := fields[keyChildren]; ok {
		if !e.Kind.IsLayout() {
			return unknown("children on a non-layout element")
		}
		if err := json.Unmarshal(raw, &slots); err != nil {
			return unknown("invalid children: " + err.Error())
		}
		if len(slots) > e.Kind.Slots() {
			return unknown(fmt.Sprintf("%d slots for a %d-slot layout", len(slots), e.Kind.Slots()))
		}
		delete(fields, keyChildren)
	}

	content, err := decodeContent(e.Kind, fields)
	if err != nil {
		return unknown(err.Error())
	}

	e.Content = content
	if style != nil && !style.IsZero() {
		e.Style = style
	}
	if e.Kind.IsLayout() {
		e.Slots = make([][]*Element, e.Kind.Slots())
		copy(e.Slots, slots)
	}
	return nil
}

// contentFields encodes c as a field map without envelope keys.
func contentFields(c Content) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if _, ok := c.(*LayoutContent); ok {
		return fields, nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// decodeContent builds the content record for k from a field map. Fields
// the kind does not define are rejected.
func decodeContent(k Kind, fields map[string]json.RawMessage) (Content, error) {
	c := newContent(k)
	if c == nil {
		return nil, fmt.Errorf("unknown element type %q", k)
	}
	if _, ok := c.(*LayoutContent); ok {
		for name := range fields {
			return nil, fmt.Errorf("layout has no field %q", name)
		}
		return c, nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if err := decodeStrict(raw, c); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ParseDocument decodes a persisted document and checks its structure.
func ParseDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func jsonString(raw json.RawMessage, s *string) bool {
	return json.Unmarshal(raw, s) == nil
}
