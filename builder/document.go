package builder

import (
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// IDGenerator returns a fresh element id on every call.
type IDGenerator func() string

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Document is a page, landing page, form or email template: an ordered
// element tree plus one global style record.
type Document struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"ownerId"`
	Kind      DocumentKind `json:"kind"`
	Title     string       `json:"title"`
	Slug      string       `json:"slug"`
	Active    bool         `json:"active"`
	Styles    StyleProps   `json:"styles"`
	Elements  []*Element   `json:"elements"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`

	// IDs overrides element id generation. Nil means uuid.NewString.
	IDs IDGenerator `json:"-"`
}

// NewDocument returns an empty document with default styles.
func NewDocument(kind DocumentKind, title, slug string) *Document {
	return &Document{
		Kind:     kind,
		Title:    title,
		Slug:     slug,
		Styles:   StyleProps{Theme: "light", ButtonMode: ButtonFill, Radius: RadiusMedium},
		Elements: []*Element{},
	}
}

func (d *Document) newID() string {
	if d.IDs != nil {
		return d.IDs()
	}
	return uuid.NewString()
}

// Validate checks document metadata, styles and the element tree: ids are
// non-empty and unique, and layouts carry the slot count their kind fixes.
func (d *Document) Validate() error {
	err := validation.ValidateStruct(d,
		validation.Field(&d.Kind, validation.Required, validation.In(DocumentEmail, DocumentLink, DocumentLanding, DocumentForm)),
		validation.Field(&d.Title, validation.Length(0, MaxTitleLength)),
		validation.Field(&d.Slug, validation.Required, validation.Length(1, 100), validation.Match(slugPattern)),
		validation.Field(&d.Styles),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	seen := make(map[string]bool)
	var check func(seq []*Element) error
	check = func(seq []*Element) error {
		for _, el := range seq {
			if el == nil {
				return fmt.Errorf("%w: nil element", ErrValidation)
			}
			if el.ID == "" {
				return fmt.Errorf("%w: element without id", ErrValidation)
			}
			if seen[el.ID] {
				return fmt.Errorf("%w: duplicate element id %s", ErrValidation, el.ID)
			}
			seen[el.ID] = true
			if el.Unknown() {
				continue
			}
			if len(el.Slots) != el.Kind.Slots() {
				return fmt.Errorf("%w: element %s has %d slots, want %d", ErrValidation, el.ID, len(el.Slots), el.Kind.Slots())
			}
			if el.Style != nil {
				if err := el.Style.Validate(); err != nil {
					return fmt.Errorf("%w: element %s style: %v", ErrValidation, el.ID, err)
				}
			}
			for _, slot := range el.Slots {
				if err := check(slot); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return check(d.Elements)
}

// Walk visits every element depth-first in render order. fn returns false
// to stop the walk.
func (d *Document) Walk(fn func(el *Element, depth int) bool) {
	var walk func(seq []*Element, depth int) bool
	walk = func(seq []*Element, depth int) bool {
		for _, el := range sorted(seq) {
			if !fn(el, depth) {
				return false
			}
			for _, slot := range el.Slots {
				if !walk(slot, depth+1) {
					return false
				}
			}
		}
		return true
	}
	walk(d.Elements, 0)
}

// Count returns the number of elements in the tree.
func (d *Document) Count() int {
	n := 0
	d.Walk(func(*Element, int) bool { n++; return true })
	return n
}

// Clone returns a deep copy that shares nothing with d.
func (d *Document) Clone() *Document {
	cp := *d
	cp.Elements = cloneSeq(d.Elements)
	if cp.Elements == nil {
		cp.Elements = []*Element{}
	}
	return &cp
}

// Reassign gives every element a fresh id from gen, or from the
// document's own generator when gen is nil.
func (d *Document) Reassign(gen IDGenerator) {
	if gen == nil {
		gen = d.newID
	}
	var walk func(seq []*Element)
	walk = func(seq []*Element) {
		for _, el := range seq {
			el.ID = gen()
			for _, slot := range el.Slots {
				walk(slot)
			}
		}
	}
	walk(d.Elements)
}
