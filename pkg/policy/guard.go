package policy

import (
	"context"

	"github.com/inquest-labs/inquest/backend/pkg/common"
)

// Decision records the outcome of filtering one request's context. It is
// derived once per request, before any model call, and never recomputed.
type Decision struct {
	FilteredEvidenceCount int `json:"filtered_evidence_count"`
	AllowedEvidenceCount  int `json:"allowed_evidence_count"`
}

// Guard applies the policy engine to case access and retrieved context.
// Filtering happens before any third-party model sees data.
type Guard struct {
	engine Engine
}

// NewGuard creates a Guard over the given policy engine.
func NewGuard(engine Engine) *Guard {
	return &Guard{engine: engine}
}

// CanAccessCase decides case-level access. It must be checked before any
// retrieval happens; a denial short-circuits the whole pipeline.
func (g *Guard) CanAccessCase(ctx context.Context, user User, tenantID, caseID string) (bool, error) {
	return g.engine.CanAccess(ctx, user, Resource{
		Kind:     ResourceCase,
		ID:       caseID,
		CaseID:   caseID,
		TenantID: tenantID,
	})
}

// ApplyToContext removes every node, edge, and evidence snippet the user is
// not allowed to see and reports filtered-vs-allowed evidence counts. Edges
// whose endpoint was filtered are dropped too, so the result stays a
// consistent subgraph. The input context is not modified.
func (g *Guard) ApplyToContext(
	ctx context.Context,
	graphCtx common.GraphContext,
	user User,
	caseID string,
) (common.GraphContext, Decision, error) {
	filtered := common.GraphContext{
		Nodes:            make([]common.Node, 0, len(graphCtx.Nodes)),
		Edges:            make([]common.Edge, 0, len(graphCtx.Edges)),
		EvidenceSnippets: make([]common.EvidenceSnippet, 0, len(graphCtx.EvidenceSnippets)),
	}

	keptNodes := make(map[string]bool, len(graphCtx.Nodes))
	for _, n := range graphCtx.Nodes {
		ok, err := g.engine.CanAccess(ctx, user, Resource{
			Kind:        ResourceNode,
			ID:          n.ID,
			CaseID:      caseID,
			TenantID:    user.TenantID,
			Sensitivity: nodeSensitivity(n),
		})
		if err != nil {
			return common.GraphContext{}, Decision{}, err
		}
		if !ok {
			continue
		}
		keptNodes[n.ID] = true
		filtered.Nodes = append(filtered.Nodes, n)
	}

	for _, e := range graphCtx.Edges {
		if !keptNodes[e.SourceID] || !keptNodes[e.TargetID] {
			continue
		}
		ok, err := g.engine.CanAccess(ctx, user, Resource{
			Kind:        ResourceEdge,
			ID:          e.ID,
			CaseID:      caseID,
			TenantID:    user.TenantID,
			Sensitivity: edgeSensitivity(e),
		})
		if err != nil {
			return common.GraphContext{}, Decision{}, err
		}
		if !ok {
			continue
		}
		filtered.Edges = append(filtered.Edges, e)
	}

	decision := Decision{}
	for _, s := range graphCtx.EvidenceSnippets {
		ok, err := g.engine.CanAccess(ctx, user, Resource{
			Kind:        ResourceEvidence,
			ID:          s.EvidenceID,
			CaseID:      caseID,
			TenantID:    user.TenantID,
			Sensitivity: s.Sensitivity,
		})
		if err != nil {
			return common.GraphContext{}, Decision{}, err
		}
		if !ok {
			decision.FilteredEvidenceCount++
			continue
		}
		decision.AllowedEvidenceCount++
		filtered.EvidenceSnippets = append(filtered.EvidenceSnippets, s)
	}

	return filtered, decision, nil
}

func nodeSensitivity(n common.Node) int {
	return propSensitivity(n.Props)
}

func edgeSensitivity(e common.Edge) int {
	return propSensitivity(e.Props)
}

func propSensitivity(props map[string]any) int {
	if props == nil {
		return 0
	}
	switch v := props["sensitivity"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
