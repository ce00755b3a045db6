package rag

import (
	"github.com/inquest-labs/inquest/backend/pkg/ai"
	"github.com/inquest-labs/inquest/backend/pkg/common"
)

// validateCitations is the last gate before an answer leaves the pipeline.
// A citation is kept only if its evidence id is in the snippet set that was
// actually sent to the model; everything else is removed and recorded as
// dangling. The gate never fails — it degrades the answer in place.
func validateCitations(
	draft ai.DraftAnswer,
	snippets []common.EvidenceSnippet,
) (GraphRagAnswer, CitationDiagnostics) {
	answer := GraphRagAnswer{
		AnswerText: draft.AnswerText,
		Citations:  []common.Citation{},
		Unknowns:   append([]string{}, draft.Unknowns...),
	}
	diagnostics := CitationDiagnostics{
		KeptCitations:     []common.Citation{},
		DanglingCitations: []common.Citation{},
	}

	// The orchestrator never calls the model with zero evidence, so an empty
	// snippet set here means every citation is a fabrication.
	known := make(map[string]bool, len(snippets))
	for _, s := range snippets {
		known[s.EvidenceID] = true
	}

	for _, c := range draft.Citations {
		if known[c.EvidenceID] {
			answer.Citations = append(answer.Citations, c)
			diagnostics.KeptCitations = append(diagnostics.KeptCitations, c)
			continue
		}
		diagnostics.DanglingCitations = append(diagnostics.DanglingCitations, c)
	}

	if len(answer.Citations) == 0 && len(draft.Citations) > 0 && answer.AnswerText != "" {
		answer.Unknowns = append(answer.Unknowns, UnverifiedClaimsNote)
	}

	return answer, diagnostics
}
