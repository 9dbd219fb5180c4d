package markdown

import (
	"context"
	"strings"
	"testing"
)

func TestRenderInline(t *testing.T) {
	tests := []struct {
		input    string
		contains string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"~~gone~~", "<del>gone</del>"},
		{"# Title", "<h1>Title</h1>"},
		{"- one\n- two", "<li>one</li>"},
	}
	for _, tt := range tests {
		got, err := Render(tt.input)
		if err != nil {
			t.Fatalf("Render(%q): %v", tt.input, err)
		}
		if !strings.Contains(got, tt.contains) {
			t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, tt.contains)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	got, err := Render("   \n")
	if err != nil || got != "" {
		t.Errorf("Render(blank) = %q, %v; want empty", got, err)
	}
}

func TestRenderHardWraps(t *testing.T) {
	got, _ := Render("line one\nline two")
	if !strings.Contains(got, "<br") {
		t.Errorf("expected hard wrap, got %q", got)
	}
}

func TestRenderStripsScripts(t *testing.T) {
	inputs := []string{
		"<script>alert(1)</script>hello",
		"[click](javascript:alert(1))",
		`<a href="#" onclick="steal()">x</a>`,
		`<img src="x" onerror="alert(1)">`,
	}
	for _, in := range inputs {
		got, err := Render(in)
		if err != nil {
			t.Fatalf("Render(%q): %v", in, err)
		}
		for _, bad := range []string{"<script", "javascript:", "onclick", "onerror"} {
			if strings.Contains(got, bad) {
				t.Errorf("Render(%q) = %q, kept %q", in, got, bad)
			}
		}
	}
}

func TestRenderLinksGetNoFollow(t *testing.T) {
	got, _ := Render("[site](https://example.com)")
	if !strings.Contains(got, `rel="nofollow noopener"`) && !strings.Contains(got, `nofollow`) {
		t.Errorf("expected nofollow on link, got %q", got)
	}
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("expected target=_blank on absolute link, got %q", got)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	src := "Hello **world**, see [docs](https://example.com/docs).\n\n| a | b |\n|---|---|\n| 1 | 2 |"
	first, _ := Render(src)
	for i := 0; i < 5; i++ {
		again, _ := Render(src)
		if again != first {
			t.Fatalf("render %d differs:\n%s\n%s", i, first, again)
		}
	}
}

func TestMarkdownComponent(t *testing.T) {
	var b strings.Builder
	if err := Markdown("**hi**").Render(context.Background(), &b); err != nil {
		t.Fatal(err)
	}
	if b.String() != "<p><strong>hi</strong></p>" {
		t.Errorf("got %q", b.String())
	}
}
