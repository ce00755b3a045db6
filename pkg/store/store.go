package store

import (
	"context"

	"github.com/inquest-labs/inquest/backend/pkg/common"
)

// GraphResult is the raw, untruncated output of a graph query.
type GraphResult struct {
	Nodes []common.Node
	Edges []common.Edge
}

// GraphRepository executes generated queries against the case graph store.
// Implementations must guarantee tenant isolation independent of the query's
// own $caseId scoping, and must never perform a write.
type GraphRepository interface {
	RunScopedQuery(
		ctx context.Context,
		query string,
		params map[string]any,
		tenantID string,
	) (GraphResult, error)
}

// EvidenceQuery selects evidence snippets linked to graph elements. When an
// embedding is supplied, results are ranked by similarity to it; otherwise
// they come back in stable creation order.
type EvidenceQuery struct {
	CaseID    string
	NodeIDs   []string
	EdgeIDs   []string
	Embedding []float32
	Limit     int
}

// EvidenceRepository fetches citable evidence snippets for retrieved
// nodes and edges.
type EvidenceRepository interface {
	FetchEvidenceFor(ctx context.Context, q EvidenceQuery) ([]common.EvidenceSnippet, error)
}
