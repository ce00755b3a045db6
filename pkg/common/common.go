package common

import "time"

// Node represents a vertex in a case graph. A node can be a person,
// organization, location, account, or any other investigation-relevant
// concept that is reachable from the case node it belongs to.
type Node struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Label     string         `json:"label"`
	Props     map[string]any `json:"props,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Edge represents a directional relationship between two nodes in a
// case graph.
type Edge struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	SourceID  string         `json:"source_id"`
	TargetID  string         `json:"target_id"`
	Props     map[string]any `json:"props,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// EvidenceSnippet is a short text excerpt tied to a node or edge. Snippets
// are the only material an answer may cite; the sensitivity level controls
// which requesters are allowed to see them.
type EvidenceSnippet struct {
	EvidenceID  string `json:"evidence_id"`
	ClaimID     string `json:"claim_id,omitempty"`
	Text        string `json:"text"`
	Sensitivity int    `json:"sensitivity"`
}

// Citation is a claimed reference inside a draft answer. It is untrusted
// until checked against the evidence set that was actually provided.
type Citation struct {
	EvidenceID string `json:"evidence_id"`
	ClaimID    string `json:"claim_id,omitempty"`
}

// SchemaContext describes the shape of the case graph a question is asked
// against. It is immutable per request and supplied by the caller.
type SchemaContext struct {
	NodeTypes     []string `json:"node_types"`
	EdgeTypes     []string `json:"edge_types"`
	SchemaSummary string   `json:"schema_summary"`
	TenantID      string   `json:"tenant_id"`
	CaseID        string   `json:"case_id"`
}

// GraphContext is a size-bounded neighborhood of the case graph together
// with the evidence snippets linked to it.
type GraphContext struct {
	Nodes            []Node            `json:"nodes"`
	Edges            []Edge            `json:"edges"`
	EvidenceSnippets []EvidenceSnippet `json:"evidence_snippets"`
}

// ContextSummary captures the size of a graph context for auditing and
// response disclosure.
type ContextSummary struct {
	NumNodes            int `json:"num_nodes"`
	NumEdges            int `json:"num_edges"`
	NumEvidenceSnippets int `json:"num_evidence_snippets"`
}

// Summary returns the size summary of the context.
func (c GraphContext) Summary() ContextSummary {
	return ContextSummary{
		NumNodes:            len(c.Nodes),
		NumEdges:            len(c.Edges),
		NumEvidenceSnippets: len(c.EvidenceSnippets),
	}
}

// RetrievalLimits bounds how much of the case graph a single request may
// pull in.
type RetrievalLimits struct {
	MaxNodes            int `json:"max_nodes"`
	MaxDepth            int `json:"max_depth"`
	MaxEvidenceSnippets int `json:"max_evidence_snippets"`
}

// DefaultRetrievalLimits returns the limits used when the caller does not
// configure its own.
func DefaultRetrievalLimits() RetrievalLimits {
	return RetrievalLimits{
		MaxNodes:            50,
		MaxDepth:            4,
		MaxEvidenceSnippets: 20,
	}
}
