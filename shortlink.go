package pagecraft

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pagecraft/builder"
)

const (
	codeAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 7
	codeAttempts = 5
)

// Shortener turns a long URL into a short one.
type Shortener interface {
	Shorten(ctx context.Context, url string) (string, error)
}

// shortLinkStore is the part of Store a StoreShortener needs.
type shortLinkStore interface {
	ShortCode(ctx context.Context, url string) (string, error)
	SaveShortLink(ctx context.Context, code, url string) error
}

// StoreShortener keeps codes in the site database and serves them under
// BaseURL/s/<code>/. Shortening the same URL twice returns the same code.
type StoreShortener struct {
	store   shortLinkStore
	baseURL string
	code    func() (string, error)
}

// NewStoreShortener returns a shortener writing to store.
func NewStoreShortener(store shortLinkStore, baseURL string) *StoreShortener {
	return &StoreShortener{store: store, baseURL: baseURL, code: randomCode}
}

// Shorten implements Shortener.
func (s *StoreShortener) Shorten(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: empty url", builder.ErrValidation)
	}
	code, err := s.store.ShortCode(ctx, url)
	if err == nil {
		return BuildURL(s.baseURL, "s", code), nil
	}
	if !errors.Is(err, builder.ErrNotFound) {
		return "", err
	}
	for range codeAttempts {
		code, err = s.code()
		if err != nil {
			return "", err
		}
		err = s.store.SaveShortLink(ctx, code, url)
		if err == nil {
			return BuildURL(s.baseURL, "s", code), nil
		}
		if !errors.Is(err, ErrConflict) {
			return "", err
		}
		// Either the code was taken or another request shortened url first.
		if existing, lookupErr := s.store.ShortCode(ctx, url); lookupErr == nil {
			return BuildURL(s.baseURL, "s", existing), nil
		}
	}
	return "", fmt.Errorf("shorten %s: %w", url, err)
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// CanonicalURL is the public address of a document.
func (a *App) CanonicalURL(doc *builder.Document) string {
	return BuildURL(a.Config.URL, "p", doc.Slug)
}

// ShareURL returns the short link for doc, or its canonical URL when no
// shortener is configured or shortening fails.
func (a *App) ShareURL(ctx context.Context, doc *builder.Document) string {
	canonical := a.CanonicalURL(doc)
	if a.Shortener == nil {
		return canonical
	}
	short, err := a.Shortener.Shorten(ctx, canonical)
	if err != nil {
		a.Logger.Warn("shorten link", zap.String("document", doc.ID), zap.Error(err))
		return canonical
	}
	return short
}

func (a *App) handleShortLink(c echo.Context) error {
	target, err := a.Store.ResolveShortLink(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, target)
}
