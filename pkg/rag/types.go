package rag

import (
	"time"

	"github.com/inquest-labs/inquest/backend/pkg/common"
)

// GraphRagAnswer is the validated answer returned to the caller. Every
// citation in it points at evidence the requester was allowed to see.
type GraphRagAnswer struct {
	AnswerText         string                `json:"answer_text"`
	Citations          []common.Citation     `json:"citations"`
	Unknowns           []string              `json:"unknowns"`
	UsedContextSummary common.ContextSummary `json:"used_context_summary"`
}

// CitationDiagnostics records what the citation gate kept and removed. It is
// surfaced for auditing and UI disclosure, never silently discarded.
type CitationDiagnostics struct {
	KeptCitations     []common.Citation `json:"kept_citations"`
	DanglingCitations []common.Citation `json:"dangling_citations"`
}

// Response is the full pipeline output handed to the transport layer.
type Response struct {
	Answer              GraphRagAnswer       `json:"answer"`
	RawContext          common.GraphContext  `json:"raw_context"`
	RequestID           string               `json:"request_id"`
	Timestamp           time.Time            `json:"timestamp"`
	CitationDiagnostics *CitationDiagnostics `json:"citation_diagnostics,omitempty"`
}
