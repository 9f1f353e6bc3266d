package textutil

import (
	"strings"
	"testing"
)

func TestSnippet(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"short text unchanged", "违约责任", 200, "违约责任"},
		{"whitespace collapsed", "第一条\n  合同  解除", 200, "第一条 合同 解除"},
		{"empty", "", 200, ""},
		{"zero limit keeps all", "abc def", 0, "abc def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Snippet(tt.text, tt.limit); got != tt.want {
				t.Errorf("Snippet() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnippet_Truncation(t *testing.T) {
	long := strings.Repeat("法", 300)
	got := Snippet(long, 10)

	runes := []rune(got)
	if len(runes) != 10 {
		t.Fatalf("len = %d runes, want 10", len(runes))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated snippet %q missing ellipsis", got)
	}
}
