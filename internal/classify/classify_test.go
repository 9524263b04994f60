package classify

import (
	"strings"
	"testing"
)

func TestClassify_Boundary(t *testing.T) {
	short := strings.Repeat("a", 128)
	long := strings.Repeat("a", 129)

	if got := Classify(short); got != ShortText {
		t.Errorf("128 chars: got %v, want ShortText", got)
	}
	if got := Classify(long); got != LongText {
		t.Errorf("129 chars: got %v, want LongText", got)
	}
}

func TestClassify_Paths(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Path
	}{
		{"empty", "", Empty},
		{"whitespace", "   \n\t ", Empty},
		{"command only", "/s", Empty},
		{"command with spaces", "/s   ", Empty},
		{"short text", "hi", ShortText},
		{"bare url", "https://example.com/page", URL},
		{"url inside text", "check this https://example.com/page out", URL},
		{"url in long text", strings.Repeat("x ", 100) + "http://example.com", URL},
		{"long lorem", strings.Repeat("lorem ipsum ", 20), LongText},
		{"command stripped before length", "/s " + strings.Repeat("a", 128), ShortText},
		{"scheme required", "example.com/page looks like a link", ShortText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassify_URLWinsOverLength(t *testing.T) {
	// URL classification applies regardless of message length.
	text := "https://example.com " + strings.Repeat("a", 500)
	if got := Classify(text); got != URL {
		t.Errorf("got %v, want URL", got)
	}
	if got := Classify("https://e.co"); got != URL {
		t.Errorf("short url: got %v, want URL", got)
	}
}

func TestFirstURL(t *testing.T) {
	text := "see https://first.example/a and https://second.example/b"
	if got := FirstURL(text); got != "https://first.example/a" {
		t.Errorf("FirstURL = %q", got)
	}
	if got := FirstURL("no links here"); got != "" {
		t.Errorf("FirstURL on plain text = %q", got)
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("  https://example.com/page ") {
		t.Error("leading whitespace should not matter")
	}
	if IsURL("read https://example.com later") {
		t.Error("text merely containing a URL is not a URL message")
	}
}

func TestStripCommand(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/s hello", "hello"},
		{"/s@solrem_bot hello", "hello"},
		{"/stats", ""},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := StripCommand(tt.in); got != tt.want {
			t.Errorf("StripCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
