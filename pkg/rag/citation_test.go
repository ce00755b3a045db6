package rag

import (
	"testing"

	"github.com/inquest-labs/inquest/backend/pkg/ai"
	"github.com/inquest-labs/inquest/backend/pkg/common"
)

func TestValidateCitations(t *testing.T) {
	snippets := []common.EvidenceSnippet{
		{EvidenceID: "ev1", Text: "bank statement"},
		{EvidenceID: "ev2", Text: "witness interview"},
	}

	tests := []struct {
		name         string
		draft        ai.DraftAnswer
		wantKept     int
		wantDangling int
		wantNote     bool
	}{
		{
			name: "all citations valid",
			draft: ai.DraftAnswer{
				AnswerText: "The transfer is documented.",
				Citations:  []common.Citation{{EvidenceID: "ev1"}, {EvidenceID: "ev2"}},
			},
			wantKept:     2,
			wantDangling: 0,
		},
		{
			name: "dangling citation removed",
			draft: ai.DraftAnswer{
				AnswerText: "The transfer is documented.",
				Citations:  []common.Citation{{EvidenceID: "ev1"}, {EvidenceID: "ev9"}},
			},
			wantKept:     1,
			wantDangling: 1,
		},
		{
			name: "all citations dangling",
			draft: ai.DraftAnswer{
				AnswerText: "The suspect owns the account.",
				Citations:  []common.Citation{{EvidenceID: "ev8"}, {EvidenceID: "ev9"}},
			},
			wantKept:     0,
			wantDangling: 2,
			wantNote:     true,
		},
		{
			name: "no citations at all",
			draft: ai.DraftAnswer{
				AnswerText: "Unable to determine.",
				Unknowns:   []string{"ownership of account 4711"},
			},
			wantKept:     0,
			wantDangling: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, diagnostics := validateCitations(tt.draft, snippets)

			if len(answer.Citations) != tt.wantKept {
				t.Fatalf("kept %d citations, want %d", len(answer.Citations), tt.wantKept)
			}
			if len(diagnostics.KeptCitations) != tt.wantKept {
				t.Fatalf("diagnostics kept %d, want %d", len(diagnostics.KeptCitations), tt.wantKept)
			}
			if len(diagnostics.DanglingCitations) != tt.wantDangling {
				t.Fatalf("diagnostics dangling %d, want %d", len(diagnostics.DanglingCitations), tt.wantDangling)
			}

			if answer.AnswerText != tt.draft.AnswerText {
				t.Fatalf("answer text changed: %q", answer.AnswerText)
			}

			hasNote := false
			for _, u := range answer.Unknowns {
				if u == UnverifiedClaimsNote {
					hasNote = true
				}
			}
			if hasNote != tt.wantNote {
				t.Fatalf("unverified note present = %v, want %v", hasNote, tt.wantNote)
			}
		})
	}
}

// Even if a draft somehow arrives with zero snippets, every citation is
// treated as fabricated.
func TestValidateCitationsEmptyEvidence(t *testing.T) {
	draft := ai.DraftAnswer{
		AnswerText: "Claims without backing.",
		Citations:  []common.Citation{{EvidenceID: "ev1"}},
	}

	answer, diagnostics := validateCitations(draft, nil)

	if len(answer.Citations) != 0 {
		t.Fatalf("kept %d citations against empty evidence", len(answer.Citations))
	}
	if len(diagnostics.DanglingCitations) != 1 {
		t.Fatalf("dangling = %d, want 1", len(diagnostics.DanglingCitations))
	}
}
