package builder

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed palette.yaml
var paletteYAML []byte

// Palette groups.
const (
	GroupElement = "element"
	GroupLayout  = "layout"
)

// PaletteDefinition is one draggable catalog entry. Defaults and Style are
// copied into every element created from it.
type PaletteDefinition struct {
	Kind     Kind           `yaml:"kind" json:"kind"`
	Label    string         `yaml:"label" json:"label"`
	Group    string         `yaml:"group" json:"group"`
	Defaults Fields         `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Style    *StyleOverride `yaml:"style,omitempty" json:"style,omitempty"`
}

// NewElement builds an element of the definition's kind with its defaults.
func (p PaletteDefinition) NewElement(id string) (*Element, error) {
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown palette kind %q", ErrValidation, p.Kind)
	}
	el := newElement(id, p.Kind)
	if len(p.Defaults) > 0 {
		fields := make(map[string]json.RawMessage, len(p.Defaults))
		for k, v := range p.Defaults {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("%w: palette %s default %s: %v", ErrValidation, p.Kind, k, err)
			}
			fields[k] = raw
		}
		content, err := decodeContent(p.Kind, fields)
		if err != nil {
			return nil, fmt.Errorf("%w: palette %s defaults: %v", ErrValidation, p.Kind, err)
		}
		if err := content.Validate(); err != nil {
			return nil, fmt.Errorf("%w: palette %s defaults: %v", ErrValidation, p.Kind, err)
		}
		el.Content = content
	}
	if p.Style != nil && !p.Style.IsZero() {
		if err := p.Style.Validate(); err != nil {
			return nil, fmt.Errorf("%w: palette %s style: %v", ErrValidation, p.Kind, err)
		}
		s := *p.Style
		el.Style = &s
	}
	return el, nil
}

// Palette is a read-only catalog of element and layout definitions.
type Palette struct {
	defs   []PaletteDefinition
	byKind map[Kind]int
}

type paletteFile struct {
	Elements []PaletteDefinition `yaml:"elements"`
}

// ParsePalette decodes a YAML catalog. Every kind must be known and may
// appear once, and its defaults and style must validate.
func ParsePalette(data []byte) (*Palette, error) {
	var f paletteFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse palette: %w", err)
	}
	p := &Palette{byKind: make(map[Kind]int, len(f.Elements))}
	for _, def := range f.Elements {
		if !def.Kind.Valid() {
			return nil, fmt.Errorf("palette: unknown kind %q", def.Kind)
		}
		if _, dup := p.byKind[def.Kind]; dup {
			return nil, fmt.Errorf("palette: duplicate kind %q", def.Kind)
		}
		if def.Group == "" {
			def.Group = GroupElement
			if def.Kind.IsLayout() {
				def.Group = GroupLayout
			}
		}
		if def.Label == "" {
			def.Label = string(def.Kind)
		}
		if _, err := def.NewElement("check"); err != nil {
			return nil, err
		}
		p.byKind[def.Kind] = len(p.defs)
		p.defs = append(p.defs, def)
	}
	return p, nil
}

var (
	defaultPalette     *Palette
	defaultPaletteOnce sync.Once
)

// DefaultPalette returns the embedded catalog.
func DefaultPalette() *Palette {
	defaultPaletteOnce.Do(func() {
		p, err := ParsePalette(paletteYAML)
		if err != nil {
			panic(err)
		}
		defaultPalette = p
	})
	return defaultPalette
}

// Lookup returns the definition for k.
func (p *Palette) Lookup(k Kind) (PaletteDefinition, bool) {
	i, ok := p.byKind[k]
	if !ok {
		return PaletteDefinition{}, false
	}
	return p.defs[i], true
}

// Definitions returns all entries in catalog order.
func (p *Palette) Definitions() []PaletteDefinition {
	return append([]PaletteDefinition(nil), p.defs...)
}

// Group returns the entries of one group in catalog order.
func (p *Palette) Group(name string) []PaletteDefinition {
	var out []PaletteDefinition
	for _, d := range p.defs {
		if d.Group == name {
			out = append(out, d)
		}
	}
	return out
}

// Groups returns group names in order of first appearance.
func (p *Palette) Groups() []string {
	var out []string
	seen := map[string]bool{}
	for _, d := range p.defs {
		if !seen[d.Group] {
			seen[d.Group] = true
			out = append(out, d.Group)
		}
	}
	return out
}
