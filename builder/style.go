package builder

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Radius is a corner-radius bucket.
type Radius string

const (
	RadiusNone   Radius = "none"
	RadiusSmall  Radius = "sm"
	RadiusMedium Radius = "md"
	RadiusLarge  Radius = "lg"
	RadiusFull   Radius = "full"
)

// ButtonMode selects filled or outlined buttons.
type ButtonMode string

const (
	ButtonFill    ButtonMode = "fill"
	ButtonOutline ButtonMode = "outline"
)

var (
	colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20}|rgba?\([0-9., %]+\))$`)
	fontPattern  = regexp.MustCompile(`^[A-Za-z0-9 ,'\-]{1,80}$`)

	colorRule  = validation.Match(colorPattern).Error("must be a hex, rgb() or named color")
	fontRule   = validation.Match(fontPattern).Error("must be a plain font family list")
	radiusRule = validation.In(RadiusNone, RadiusSmall, RadiusMedium, RadiusLarge, RadiusFull)
	alignRule  = validation.In("left", "center", "right")
)

// StyleOverride is the per-element style record. A non-empty field wins
// over the document's StyleProps for that element only.
type StyleOverride struct {
	BackgroundColor string `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty" yaml:"textColor,omitempty"`
	ButtonColor     string `json:"buttonColor,omitempty" yaml:"buttonColor,omitempty"`
	ButtonTextColor string `json:"buttonTextColor,omitempty" yaml:"buttonTextColor,omitempty"`
	Radius          Radius `json:"radius,omitempty" yaml:"radius,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	Align           string `json:"align,omitempty" yaml:"align,omitempty"`
}

// Merge copies every non-empty field of p into s.
func (s *StyleOverride) Merge(p StyleOverride) {
	if p.BackgroundColor != "" {
		s.BackgroundColor = p.BackgroundColor
	}
	if p.TextColor != "" {
		s.TextColor = p.TextColor
	}
	if p.ButtonColor != "" {
		s.ButtonColor = p.ButtonColor
	}
	if p.ButtonTextColor != "" {
		s.ButtonTextColor = p.ButtonTextColor
	}
	if p.Radius != "" {
		s.Radius = p.Radius
	}
	if p.FontFamily != "" {
		s.FontFamily = p.FontFamily
	}
	if p.Align != "" {
		s.Align = p.Align
	}
}

// IsZero reports whether no field is set.
func (s StyleOverride) IsZero() bool {
	return s == StyleOverride{}
}

func (s StyleOverride) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.BackgroundColor, colorRule),
		validation.Field(&s.TextColor, colorRule),
		validation.Field(&s.ButtonColor, colorRule),
		validation.Field(&s.ButtonTextColor, colorRule),
		validation.Field(&s.Radius, radiusRule),
		validation.Field(&s.FontFamily, fontRule),
		validation.Field(&s.Align, alignRule),
	)
}

// Background is either a color or an image reference; an image wins when
// both are set.
type Background struct {
	Color string `json:"color,omitempty"`
	Image string `json:"image,omitempty"`
}

func (b Background) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Color, colorRule),
		validation.Field(&b.Image, urlRule, validation.By(cssSafe)),
	)
}

// cssSafe rejects characters that would end a CSS url() token.
func cssSafe(value interface{}) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `'"()\;`) {
		return errors.New("contains characters not allowed in a CSS url")
	}
	return nil
}

// StyleProps is the global style record of a document.
type StyleProps struct {
	Theme           string     `json:"theme,omitempty"`
	Background      Background `json:"background"`
	TextColor       string     `json:"textColor,omitempty"`
	ButtonMode      ButtonMode `json:"buttonMode,omitempty"`
	ButtonColor     string     `json:"buttonColor,omitempty"`
	ButtonTextColor string     `json:"buttonTextColor,omitempty"`
	Radius          Radius     `json:"radius,omitempty"`
	FontFamily      string     `json:"fontFamily,omitempty"`
}

func (p StyleProps) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Theme, validation.Length(0, 40)),
		validation.Field(&p.Background),
		validation.Field(&p.TextColor, colorRule),
		validation.Field(&p.ButtonMode, validation.In(ButtonFill, ButtonOutline)),
		validation.Field(&p.ButtonColor, colorRule),
		validation.Field(&p.ButtonTextColor, colorRule),
		validation.Field(&p.Radius, radiusRule),
		validation.Field(&p.FontFamily, fontRule),
	)
}

// StylePatch is a partial StyleProps. Nil fields are left alone;
// Background replaces the whole background when set.
type StylePatch struct {
	Theme           *string     `json:"theme,omitempty"`
	Background      *Background `json:"background,omitempty"`
	TextColor       *string     `json:"textColor,omitempty"`
	ButtonMode      *ButtonMode `json:"buttonMode,omitempty"`
	ButtonColor     *string     `json:"buttonColor,omitempty"`
	ButtonTextColor *string     `json:"buttonTextColor,omitempty"`
	Radius          *Radius     `json:"radius,omitempty"`
	FontFamily      *string     `json:"fontFamily,omitempty"`
}

func (p StylePatch) apply(s *StyleProps) {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Background != nil {
		s.Background = *p.Background
	}
	if p.TextColor != nil {
		s.TextColor = *p.TextColor
	}
	if p.ButtonMode != nil {
		s.ButtonMode = *p.ButtonMode
	}
	if p.ButtonColor != nil {
		s.ButtonColor = *p.ButtonColor
	}
	if p.ButtonTextColor != nil {
		s.ButtonTextColor = *p.ButtonTextColor
	}
	if p.Radius != nil {
		s.Radius = *p.Radius
	}
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
}
