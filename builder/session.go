package builder

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"
)

// DocumentSaver persists a full document and returns the stored copy
// carrying server-assigned identity and audit fields.
type DocumentSaver interface {
	SaveDocument(ctx context.Context, doc *Document) (*Document, error)
}

// Persistence is the storage collaborator of the builder.
type Persistence interface {
	DocumentSaver
	LoadDocument(ctx context.Context, id string) (*Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ResolvePublic(ctx context.Context, slug string) (*Document, error)
}

// Selection is the transient editor focus. It is never persisted.
type Selection struct {
	ElementID string
	Slot      *Slot
}

// EditBuffer holds staged inline-edit fields for one element.
type EditBuffer struct {
	ElementID string
	Fields    Fields
}

// View is a consistent copy of session state for rendering.
type View struct {
	SessionID string
	Document  *Document
	Palette   *Palette
	Selection Selection
	Dragging  Payload
	Editing   *EditBuffer
	Dirty     bool
	SaveError error
}

// Session is one editor's working state for one document. All methods
// are safe for concurrent use and each one is atomic.
type Session struct {
	ID string

	mu       sync.Mutex
	doc      *Document
	palette  *Palette
	drag     Coordinator
	sel      Selection
	edit     *EditBuffer
	rev      uint64
	savedRev uint64
	saveErr  error
	touched  time.Time
	now      func() time.Time
}

// NewSession wraps doc. A nil palette means DefaultPalette.
func NewSession(id string, doc *Document, palette *Palette) *Session {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Session{ID: id, doc: doc, palette: palette, touched: time.Now(), now: time.Now}
}

func (s *Session) mutate(fn func(d *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()
	if err := fn(s.doc); err != nil {
		return err
	}
	s.rev++
	return nil
}

// Insert appends a new element of kind to slot.
func (s *Session) Insert(slot Slot, kind Kind) (*Element, error) {
	def, ok := s.palette.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown palette kind %q", ErrValidation, kind)
	}
	var el *Element
	err := s.mutate(func(d *Document) error {
		var err error
		el, err = d.InsertElement(slot, def)
		if err == nil {
			s.sel = Selection{ElementID: el.ID}
		}
		return err
	})
	return el, err
}

// Update merges fields into an element.
func (s *Session) Update(id string, fields Fields) error {
	return s.mutate(func(d *Document) error { return d.UpdateElement(id, fields) })
}

// Move relocates an element.
func (s *Session) Move(id string, slot Slot, index int) error {
	return s.mutate(func(d *Document) error { return d.MoveElement(id, slot, index) })
}

// Delete removes an element and drops any selection or edit inside it.
func (s *Session) Delete(id string) error {
	return s.mutate(func(d *Document) error {
		if err := d.DeleteElement(id); err != nil {
			return err
		}
		if s.sel.ElementID != "" && d.Find(s.sel.ElementID) == nil {
			s.sel = Selection{}
		}
		if s.sel.Slot != nil && !d.HasSlot(*s.sel.Slot) {
			s.sel = Selection{}
		}
		if s.edit != nil && d.Find(s.edit.ElementID) == nil {
			s.edit = nil
		}
		if p, ok := s.drag.Payload().(ElementPayload); ok && d.Find(p.ElementID) == nil {
			s.drag.Cancel()
		}
		return nil
	})
}

// SetStyle merges patch into the document styles.
func (s *Session) SetStyle(patch StylePatch) error {
	return s.mutate(func(d *Document) error { return d.SetGlobalStyle(patch) })
}

// SetMeta changes the document title, slug and visibility.
func (s *Session) SetMeta(title, slug string, active bool) error {
	return s.mutate(func(d *Document) error {
		next := *d
		next.Title, next.Slug, next.Active = title, slug, active
		if err := next.Validate(); err != nil {
			return err
		}
		d.Title, d.Slug, d.Active = title, slug, active
		return nil
	})
}

// StartPaletteDrag begins dragging a palette entry.
func (s *Session) StartPaletteDrag(kind Kind) error {
	def, ok := s.palette.Lookup(kind)
	if !ok {
		return fmt.Errorf("%w: unknown palette kind %q", ErrValidation, kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()
	return s.drag.StartPalette(def)
}

// StartElementDrag begins dragging an existing element.
func (s *Session) StartElementDrag(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()
	return s.drag.StartElement(s.doc, id)
}

// Accepts reports whether the in-flight drag may land on t.
func (s *Session) Accepts(t DropTarget) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.Accepts(s.doc, t)
}

// Drop commits the in-flight drag at t.
func (s *Session) Drop(t DropTarget) (*Element, error) {
	var el *Element
	err := s.mutate(func(d *Document) error {
		var err error
		el, err = s.drag.Drop(d, t)
		if err == nil {
			s.sel = Selection{ElementID: el.ID}
		}
		return err
	})
	return el, err
}

// CancelDrag abandons the in-flight drag.
func (s *Session) CancelDrag() {
	s.mu.Lock()
	s.drag.Cancel()
	s.mu.Unlock()
}

// Select focuses an element. An empty id clears the selection.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()
	if id == "" {
		s.sel = Selection{}
		return nil
	}
	if s.doc.Find(id) == nil {
		return fmt.Errorf("%w: element %s", ErrNotFound, id)
	}
	s.sel = Selection{ElementID: id}
	return nil
}

// SelectSlot focuses a drop slot, for keyboard insertion.
func (s *Session) SelectSlot(slot Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()
	if !s.doc.HasSlot(slot) {
		return fmt.Errorf("%w: slot %s", ErrNotFound, slot)
	}
	s.sel = Selection{Slot: &slot}
	return nil
}

var errNoEdit = fmt.Errorf("%w: no edit in progress", ErrValidation)

// BeginEdit opens an inline edit on id, replacing any open edit.
func (s *Session) BeginEdit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()
	el := s.doc.Find(id)
	if el == nil {
		return fmt.Errorf("%w: element %s", ErrNotFound, id)
	}
	if el.Unknown() {
		return fmt.Errorf("%w: element %s has unsupported type %q", ErrValidation, id, el.Kind)
	}
	s.edit = &EditBuffer{ElementID: id, Fields: Fields{}}
	s.sel = Selection{ElementID: id}
	return nil
}

// StageEdit records fields in the open edit without touching the document.
func (s *Session) StageEdit(fields Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return errNoEdit
	}
	maps.Copy(s.edit.Fields, fields)
	return nil
}

// CommitEdit applies the staged fields. The edit stays open when the
// update is rejected so the editor can correct it.
func (s *Session) CommitEdit() error {
	return s.mutate(func(d *Document) error {
		if s.edit == nil {
			return errNoEdit
		}
		if err := d.UpdateElement(s.edit.ElementID, s.edit.Fields); err != nil {
			return err
		}
		s.edit = nil
		return nil
	})
}

// CancelEdit discards staged fields.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	s.edit = nil
	s.mu.Unlock()
}

// Save persists a snapshot of the document. The persistence call runs
// without holding the session lock, so the editor stays responsive. On
// failure the local document is kept as is and stays dirty; calling Save
// again re-sends the full document.
func (s *Session) Save(ctx context.Context, p DocumentSaver) (*Document, error) {
	s.mu.Lock()
	if err := s.doc.Validate(); err != nil {
		s.saveErr = err
		s.mu.Unlock()
		return nil, err
	}
	snapshot := s.doc.Clone()
	rev := s.rev
	s.mu.Unlock()

	saved, err := p.SaveDocument(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && saved == nil {
		err = errors.New("save returned no document")
	}
	if err != nil {
		s.saveErr = err
		return nil, err
	}
	s.doc.ID = saved.ID
	s.doc.OwnerID = saved.OwnerID
	s.doc.CreatedAt = saved.CreatedAt
	s.doc.UpdatedAt = saved.UpdatedAt
	s.savedRev = max(s.savedRev, rev)
	s.saveErr = nil
	return saved.Clone(), nil
}

// Dirty reports whether there are edits not yet saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev != s.savedRev
}

// Document returns a deep copy of the current document.
func (s *Session) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Snapshot returns a consistent copy of everything the editor renders.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		SessionID: s.ID,
		Document:  s.doc.Clone(),
		Palette:   s.palette,
		Selection: s.sel,
		Dragging:  s.drag.Payload(),
		Dirty:     s.rev != s.savedRev,
		SaveError: s.saveErr,
	}
	if s.sel.Slot != nil {
		slot := *s.sel.Slot
		v.Selection.Slot = &slot
	}
	if s.edit != nil {
		v.Editing = &EditBuffer{ElementID: s.edit.ElementID, Fields: maps.Clone(s.edit.Fields)}
	}
	return v
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}
