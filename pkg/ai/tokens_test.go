package ai

import (
	"strings"
	"testing"

	"github.com/inquest-labs/inquest/backend/pkg/common"
)

func TestCountFallbackEstimate(t *testing.T) {
	// A zero-value counter uses the character heuristic.
	var c TokenCounter

	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 40), 10},
	}

	for _, tt := range tests {
		if got := c.Count(tt.text); got != tt.want {
			t.Fatalf("Count(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestClampEvidence(t *testing.T) {
	var c TokenCounter

	// 40 characters each, 10 estimated tokens per snippet.
	snippets := []common.EvidenceSnippet{
		{EvidenceID: "ev1", Text: strings.Repeat("a", 40)},
		{EvidenceID: "ev2", Text: strings.Repeat("b", 40)},
		{EvidenceID: "ev3", Text: strings.Repeat("c", 40)},
	}

	tests := []struct {
		name   string
		budget int
		want   []string
	}{
		{"budget disabled", 0, []string{"ev1", "ev2", "ev3"}},
		{"fits all", 100, []string{"ev1", "ev2", "ev3"}},
		{"fits two", 25, []string{"ev1", "ev2"}},
		{"fits one", 10, []string{"ev1"}},
		{"first always kept", 1, []string{"ev1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept := c.ClampEvidence(snippets, tt.budget)
			if len(kept) != len(tt.want) {
				t.Fatalf("kept %d snippets, want %d", len(kept), len(tt.want))
			}
			for i, id := range tt.want {
				if kept[i].EvidenceID != id {
					t.Fatalf("kept[%d] = %s, want %s", i, kept[i].EvidenceID, id)
				}
			}
		})
	}
}
