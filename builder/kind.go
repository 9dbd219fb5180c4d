package builder

// Kind is the closed set of element types a document can hold.
type Kind string

const (
	KindProfile      Kind = "profile"
	KindSocials      Kind = "socials"
	KindLink         Kind = "link"
	KindCard         Kind = "card"
	KindButton       Kind = "button"
	KindHeader       Kind = "header"
	KindImage        Kind = "image"
	KindDivider      Kind = "divider"
	KindText         Kind = "text"
	KindLogo         Kind = "logo"
	KindCountdown    Kind = "countdown"
	KindSingleColumn Kind = "layout-single-column"
	KindTwoColumns   Kind = "layout-two-columns"
)

var allKinds = []Kind{
	KindProfile, KindSocials, KindLink, KindCard, KindButton, KindHeader, KindImage,
	KindDivider, KindText, KindLogo, KindCountdown, KindSingleColumn, KindTwoColumns,
}

// Kinds returns every element kind in catalog order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Valid reports whether k belongs to the catalog.
func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsLayout reports whether elements of this kind hold child slots.
func (k Kind) IsLayout() bool {
	return k.Slots() > 0
}

// Slots returns the number of child slots a layout kind owns.
func (k Kind) Slots() int {
	switch k {
	case KindSingleColumn:
		return 1
	case KindTwoColumns:
		return 2
	default:
		return 0
	}
}

// DocumentKind tells which builder a document belongs to.
type DocumentKind string

const (
	DocumentEmail   DocumentKind = "email"
	DocumentLink    DocumentKind = "link"
	DocumentLanding DocumentKind = "landing"
	DocumentForm    DocumentKind = "form"
)

// Valid reports whether k is a known document kind.
func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentEmail, DocumentLink, DocumentLanding, DocumentForm:
		return true
	}
	return false
}
