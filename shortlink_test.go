package pagecraft

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/eringen/pagecraft/builder"
)

func TestShortenIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	sh := NewStoreShortener(s, "https://example.com")
	ctx := context.Background()

	first, err := sh.Shorten(ctx, "https://example.com/p/links/")
	if err != nil {
		t.Fatalf("Shorten failed: %v", err)
	}
	if !strings.HasPrefix(first, "https://example.com/s/") || !strings.HasSuffix(first, "/") {
		t.Errorf("unexpected short url %q", first)
	}
	second, err := sh.Shorten(ctx, "https://example.com/p/links/")
	if err != nil {
		t.Fatalf("second Shorten failed: %v", err)
	}
	if first != second {
		t.Errorf("expected the same short url, got %q and %q", first, second)
	}

	other, err := sh.Shorten(ctx, "https://example.com/p/other/")
	if err != nil {
		t.Fatalf("Shorten other failed: %v", err)
	}
	if other == first {
		t.Error("different urls must get different codes")
	}
}

func TestShortenRetriesTakenCodes(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.SaveShortLink(ctx, "taken00", "https://example.com/p/first/"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	codes := []string{"taken00", "fresh01"}
	sh := NewStoreShortener(s, "https://example.com")
	sh.code = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	got, err := sh.Shorten(ctx, "https://example.com/p/second/")
	if err != nil {
		t.Fatalf("Shorten failed: %v", err)
	}
	if got != "https://example.com/s/fresh01/" {
		t.Errorf("expected the retried code, got %q", got)
	}
}

func TestShortenGivesUp(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.SaveShortLink(ctx, "taken00", "https://example.com/p/first/"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sh := NewStoreShortener(s, "https://example.com")
	sh.code = func() (string, error) { return "taken00", nil }

	if _, err := sh.Shorten(ctx, "https://example.com/p/second/"); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict after exhausting attempts, got %v", err)
	}
}

func TestShortenRejectsEmptyURL(t *testing.T) {
	sh := NewStoreShortener(setupTestStore(t), "https://example.com")
	if _, err := sh.Shorten(context.Background(), ""); !errors.Is(err, builder.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestRandomCode(t *testing.T) {
	code, err := randomCode()
	if err != nil {
		t.Fatalf("randomCode failed: %v", err)
	}
	if len(code) != codeLength {
		t.Fatalf("expected length %d, got %d", codeLength, len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Errorf("unexpected rune %q in %q", r, code)
		}
	}
}

type failingShortener struct{}

func (failingShortener) Shorten(context.Context, string) (string, error) {
	return "", errors.New("upstream down")
}

func TestShareURLFallsBackToCanonical(t *testing.T) {
	a := New(SiteConfig{URL: "https://example.com"}, WithShortener(failingShortener{}), WithLogger(zap.NewNop()))
	doc := builder.NewDocument(builder.DocumentLink, "Links", "links")

	if got := a.ShareURL(context.Background(), doc); got != "https://example.com/p/links/" {
		t.Errorf("expected canonical url, got %q", got)
	}
	a.Shortener = nil
	if got := a.ShareURL(context.Background(), doc); got != "https://example.com/p/links/" {
		t.Errorf("expected canonical url without a shortener, got %q", got)
	}
}
