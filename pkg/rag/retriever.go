package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/inquest-labs/inquest/backend/pkg/common"
	"github.com/inquest-labs/inquest/backend/pkg/cypher"
	"github.com/inquest-labs/inquest/backend/pkg/store"
)

// Retriever executes a generated query and returns a size-bounded graph
// context. It is read-only and stateless; truncation is deterministic so
// repeated calls over unchanged data are reproducible.
type Retriever struct {
	graph    store.GraphRepository
	evidence store.EvidenceRepository
}

// NewRetriever creates a Retriever over the given repositories.
func NewRetriever(graph store.GraphRepository, evidence store.EvidenceRepository) *Retriever {
	return &Retriever{
		graph:    graph,
		evidence: evidence,
	}
}

// Retrieve runs the query, bounds the result to the limits, and fetches
// evidence linked to the surviving nodes and edges. The embedding is
// optional; when present the evidence repository ranks by similarity.
func (r *Retriever) Retrieve(
	ctx context.Context,
	gen *cypher.GenerationResult,
	schema common.SchemaContext,
	limits common.RetrievalLimits,
	embedding []float32,
) (common.GraphContext, error) {
	result, err := r.graph.RunScopedQuery(ctx, gen.Query, gen.Params, schema.TenantID)
	if err != nil {
		return common.GraphContext{}, fmt.Errorf("context retrieval failed: %w", err)
	}

	nodes, edges := boundGraph(result.Nodes, result.Edges, schema.CaseID, limits)

	nodeIDs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}
	edgeIDs := make([]string, 0, len(edges))
	for _, e := range edges {
		edgeIDs = append(edgeIDs, e.ID)
	}

	snippets := []common.EvidenceSnippet{}
	if len(nodeIDs) > 0 || len(edgeIDs) > 0 {
		snippets, err = r.evidence.FetchEvidenceFor(ctx, store.EvidenceQuery{
			CaseID:    schema.CaseID,
			NodeIDs:   nodeIDs,
			EdgeIDs:   edgeIDs,
			Embedding: embedding,
			Limit:     limits.MaxEvidenceSnippets,
		})
		if err != nil {
			return common.GraphContext{}, fmt.Errorf("evidence retrieval failed: %w", err)
		}
	}

	return common.GraphContext{
		Nodes:            nodes,
		Edges:            edges,
		EvidenceSnippets: snippets,
	}, nil
}

// boundGraph truncates the raw result deterministically: nodes beyond
// MaxDepth hops from the case node are pruned, survivors are ordered by
// creation time then id and capped at MaxNodes, and edges are kept only if
// both endpoints survive.
func boundGraph(
	nodes []common.Node,
	edges []common.Edge,
	caseID string,
	limits common.RetrievalLimits,
) ([]common.Node, []common.Edge) {
	sortNodes(nodes)

	if depths, ok := bfsDepths(nodes, edges, caseID); ok && limits.MaxDepth > 0 {
		within := make([]common.Node, 0, len(nodes))
		for _, n := range nodes {
			if d, reachable := depths[n.ID]; reachable && d <= limits.MaxDepth {
				within = append(within, n)
			}
		}
		nodes = within
	}

	if limits.MaxNodes > 0 && len(nodes) > limits.MaxNodes {
		nodes = nodes[:limits.MaxNodes]
	}

	kept := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		kept[n.ID] = true
	}

	boundedEdges := make([]common.Edge, 0, len(edges))
	for _, e := range edges {
		if kept[e.SourceID] && kept[e.TargetID] {
			boundedEdges = append(boundedEdges, e)
		}
	}
	sortEdges(boundedEdges)

	return nodes, boundedEdges
}

func sortNodes(nodes []common.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if !nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) {
			return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
		}
		return nodes[i].ID < nodes[j].ID
	})
}

func sortEdges(edges []common.Edge) {
	sort.SliceStable(edges, func(i, j int) bool {
		if !edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].CreatedAt.Before(edges[j].CreatedAt)
		}
		return edges[i].ID < edges[j].ID
	})
}

// bfsDepths computes hop distances from the case node, treating edges as
// undirected. Returns ok=false when the result contains no case node, in
// which case depth pruning is skipped and only the node cap applies.
func bfsDepths(nodes []common.Node, edges []common.Edge, caseID string) (map[string]int, bool) {
	root := ""
	for _, n := range nodes {
		if n.ID == caseID || (n.Type == "Case" && root == "") {
			root = n.ID
			if n.ID == caseID {
				break
			}
		}
	}
	if root == "" {
		return nil, false
	}

	adjacency := make(map[string][]string, len(nodes))
	for _, e := range edges {
		adjacency[e.SourceID] = append(adjacency[e.SourceID], e.TargetID)
		adjacency[e.TargetID] = append(adjacency[e.TargetID], e.SourceID)
	}

	depths := map[string]int{root: 0}
	queue := []string{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[current] {
			if _, seen := depths[next]; seen {
				continue
			}
			depths[next] = depths[current] + 1
			queue = append(queue, next)
		}
	}

	return depths, true
}
