package builder

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Content limits.
const (
	MaxTitleLength = 200
	MaxBodyLength  = 20000
	MaxURLLength   = 2048
	MaxSocialLinks = 20
)

// Content is the typed field record of one element. The set of
// implementations is closed: one struct per Kind.
type Content interface {
	Kind() Kind
	// Missing lists required fields that are empty.
	Missing() []string
	Validate() error
	clone() Content
}

func newContent(k Kind) Content {
	switch k {
	case KindProfile:
		return &ProfileContent{}
	case KindSocials:
		return &SocialsContent{}
	case KindLink:
		return &LinkContent{}
	case KindCard:
		return &CardContent{}
	case KindButton:
		return &ButtonContent{}
	case KindHeader:
		return &HeaderContent{}
	case KindImage:
		return &ImageContent{}
	case KindDivider:
		return &DividerContent{}
	case KindText:
		return &TextContent{}
	case KindLogo:
		return &LogoContent{}
	case KindCountdown:
		return &CountdownContent{}
	case KindSingleColumn, KindTwoColumns:
		return &LayoutContent{kind: k}
	}
	return nil
}

// required returns the names whose values are empty. Arguments alternate
// name, value.
func required(pairs ...string) []string {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	return missing
}

// urlRule accepts absolute http(s), mailto and tel URLs plus root-relative
// paths such as uploaded asset URLs.
var urlRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if len(s) > MaxURLLength {
		return errors.New("is too long")
	}
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return errors.New("must include a host")
		}
	case "mailto", "tel":
	default:
		return errors.New("must use http, https, mailto or tel")
	}
	return nil
})

var titleRule = validation.Length(0, MaxTitleLength)

// ProfileContent is the avatar + name + bio block at the top of link pages.
type ProfileContent struct {
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Image    string `json:"image,omitempty"`
}

func (c *ProfileContent) Kind() Kind        { return KindProfile }
func (c *ProfileContent) Missing() []string { return required("title", c.Title) }
func (c *ProfileContent) clone() Content    { cp := *c; return &cp }
func (c *ProfileContent) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, titleRule),
		validation.Field(&c.Subtitle, titleRule),
		validation.Field(&c.Image, urlRule),
	)
}

// SocialLink is one icon entry of a socials element.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

func (l SocialLink) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Platform, validation.Required, validation.Length(1, 40)),
		validation.Field(&l.URL, validation.Required, urlRule),
	)
}

// SocialsContent is a row of social network icons.
type SocialsContent struct {
	Links []SocialLink `json:"links,omitempty"`
}

func (c *SocialsContent) Kind() Kind        { return KindSocials }
func (c *SocialsContent) Missing() []string { return nil }
func (c *SocialsContent) clone() Content {
	cp := SocialsContent{Links: append([]SocialLink(nil), c.Links...)}
	return &cp
}
func (c *SocialsContent) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Links, validation.Length(0, MaxSocialLinks)),
	)
}

// LinkContent is a full-width link tile.
type LinkContent struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
	Image string `json:"image,omitempty"`
}

func (c *LinkContent) Kind() Kind        { return KindLink }
func (c *LinkContent) Missing() []string { return required("title", c.Title, "url", c.URL) }
func (c *LinkContent) clone() Content    { cp := *c; return &cp }
func (c *LinkContent) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, titleRule),
		validation.Field(&c.URL, urlRule),
		validation.Field(&c.Image, urlRule),
	)
}

// CardContent is an image card with a title, body copy and optional link.
type CardContent struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	Image string `json:"image,omitempty"`
	URL   string `json:"url,omitempty"`
}

func (c *CardContent) Kind() Kind        { return KindCard }
func (c *CardContent) Missing() []string { return required("title", c.Title) }
func (c *CardContent) clone() Content    { cp := *c; return &cp }
func (c *CardContent) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, titleRule),
		validation.Field(&c.Body, validation.Length(0, MaxBodyLength)),
		validation.Field(&c.Image, urlRule),
		validation.Field(&c.URL, urlRule),
	)
}

// ButtonContent is a call-to-action button.
type ButtonContent struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

func (c *ButtonContent) Kind() Kind        { return KindButton }
func (c *ButtonContent) Missing() []string { return required("title", c.Title, "url", c.URL) }
func (c *ButtonContent) clone() Content    { cp := *c; return &cp }
func (c *ButtonContent) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, titleRule),
		validation.Field(&c.URL, urlRule),
	)
}

// HeaderContent is a heading with an optional subheading.
type HeaderContent struct {
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
}

func (c *HeaderContent) Kind() Kind        { return KindHeader }
func (c *HeaderContent) Missing() []string { return required("title", c.Title) }
func (c *HeaderContent) clone() Content    { cp := *c; return &cp }
func (c *HeaderContent) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, titleRule),
		validation.Field(&c.Subtitle, titleRule),
	)
}

// ImageContent is a standalone image, optionally linked.
type ImageContent struct {
	Image string `json:"image,omitempty"`
	Alt   string `json:"alt,omitempty"`
	URL   string `json:"url,omitempty"`
}

func (c *ImageContent) Kind() Kind        { return KindImage }
func (c *ImageContent) Missing() []string { return required("image", c.Image) }
func (c *ImageContent) clone() Content    { cp := *c; return &cp }
func (c *ImageContent) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Image, urlRule),
		validation.Field(&c.Alt, titleRule),
		validation.Field(&c.URL, urlRule),
	)
}

// DividerContent is a horizontal rule. It has no fields.
type DividerContent struct{}

func (c *DividerContent) Kind() Kind        { return KindDivider }
func (c *DividerContent) Missing() []string { return nil }
func (c *DividerContent) clone() Content    { return &DividerContent{} }
func (c *DividerContent) Validate() error   { return nil }

// TextContent is a markdown paragraph block.
type TextContent struct {
	Body string `json:"body,omitempty"`
}

func (c *TextContent) Kind() Kind        { return KindText }
func (c *TextContent) Missing() []string { return required("body", c.Body) }
func (c *TextContent) clone() Content    { cp := *c; return &cp }
func (c *TextContent) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Body, validation.Length(0, MaxBodyLength)),
	)
}

// LogoContent is a brand logo, usually at the top of an email.
type LogoContent struct {
	Image string `json:"image,omitempty"`
	Alt   string `json:"alt,omitempty"`
}

func (c *LogoContent) Kind() Kind        { return KindLogo }
func (c *LogoContent) Missing() []string { return required("image", c.Image) }
func (c *LogoContent) clone() Content    { cp := *c; return &cp }
func (c *LogoContent) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Image, urlRule),
		validation.Field(&c.Alt, titleRule),
	)
}

// CountdownContent counts down to TargetDate.
type CountdownContent struct {
	Title      string     `json:"title,omitempty"`
	TargetDate *time.Time `json:"targetDate,omitempty"`
}

func (c *CountdownContent) Kind() Kind { return KindCountdown }
func (c *CountdownContent) Missing() []string {
	if c.TargetDate == nil || c.TargetDate.IsZero() {
		return []string{"targetDate"}
	}
	return nil
}
func (c *CountdownContent) clone() Content {
	cp := *c
	if c.TargetDate != nil {
		t := *c.TargetDate
		cp.TargetDate = &t
	}
	return &cp
}
func (c *CountdownContent) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, titleRule),
	)
}

// LayoutContent belongs to layout kinds; layouts carry children, not fields.
type LayoutContent struct {
	kind Kind
}

func (c *LayoutContent) Kind() Kind        { return c.kind }
func (c *LayoutContent) Missing() []string { return nil }
func (c *LayoutContent) clone() Content    { cp := *c; return &cp }
func (c *LayoutContent) Validate() error   { return nil }

// UnknownContent holds an element whose type is not in the catalog, or
// whose fields failed to decode. Its raw fields survive a save round trip.
type UnknownContent struct {
	Type   string
	Fields map[string]json.RawMessage
	Reason string
}

func (c *UnknownContent) Kind() Kind        { return Kind(c.Type) }
func (c *UnknownContent) Missing() []string { return nil }
func (c *UnknownContent) Validate() error   { return nil }
func (c *UnknownContent) clone() Content {
	cp := UnknownContent{Type: c.Type, Reason: c.Reason, Fields: make(map[string]json.RawMessage, len(c.Fields))}
	for k, v := range c.Fields {
		cp.Fields[k] = append(json.RawMessage(nil), v...)
	}
	return &cp
}
