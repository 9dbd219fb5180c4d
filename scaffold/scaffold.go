// Package scaffold ships the starter documents new pages can be created
// from.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/eringen/pagecraft/builder"
)

// Templates holds one JSON document snapshot per starter template.
//
//go:embed all:templates
var Templates embed.FS

// ErrUnknownTemplate is returned by Load for a name Names does not list.
var ErrUnknownTemplate = fmt.Errorf("%w: unknown template", builder.ErrNotFound)

// Names lists the available templates in lexical order.
func Names() []string {
	entries, err := fs.ReadDir(Templates, "templates")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == ".json" {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	return names
}

// Load decodes the named snapshot and gives every element a fresh id from
// gen, or uuids when gen is nil. The returned document has no ID, owner
// or timestamps, so saving it creates a new document.
func Load(name string, gen builder.IDGenerator) (*builder.Document, error) {
	if name == "" || strings.ContainsAny(name, "/\\.") {
		return nil, ErrUnknownTemplate
	}
	data, err := Templates.ReadFile("templates/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownTemplate, name)
	}
	doc, err := builder.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	doc.IDs = gen
	doc.Reassign(nil)
	return doc, nil
}

// New returns a document of kind. With a template name it starts from
// that snapshot, keeping the snapshot's elements and styles but taking
// kind, title and slug from the caller.
func New(kind builder.DocumentKind, title, slug, template string, gen builder.IDGenerator) (*builder.Document, error) {
	if template == "" {
		doc := builder.NewDocument(kind, title, slug)
		doc.IDs = gen
		return doc, nil
	}
	doc, err := Load(template, gen)
	if err != nil {
		return nil, err
	}
	if kind != "" {
		doc.Kind = kind
	}
	doc.Title = title
	doc.Slug = slug
	return doc, nil
}
