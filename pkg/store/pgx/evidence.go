package pgx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/inquest-labs/inquest/backend/pkg/common"
	"github.com/inquest-labs/inquest/backend/pkg/store"
)

// EvidenceStore fetches evidence snippets from the relational side of the
// case store. Snippets are linked to graph elements by application node/edge
// ids and carry an embedding for similarity ranking.
type EvidenceStore struct {
	conn *pgxpool.Pool
}

// NewEvidenceStore creates an EvidenceStore over the given pool.
func NewEvidenceStore(conn *pgxpool.Pool) *EvidenceStore {
	return &EvidenceStore{conn: conn}
}

const evidenceColumns = `evidence_id, claim_id, body, sensitivity`

// FetchEvidenceFor implements store.EvidenceRepository. With an embedding it
// ranks by cosine distance to the question; without one it falls back to
// creation order, which keeps repeated retrievals reproducible.
func (s *EvidenceStore) FetchEvidenceFor(
	ctx context.Context,
	q store.EvidenceQuery,
) ([]common.EvidenceSnippet, error) {
	if q.Limit <= 0 {
		return []common.EvidenceSnippet{}, nil
	}

	var (
		sql  string
		args []any
	)

	if len(q.Embedding) > 0 {
		sql = `SELECT ` + evidenceColumns + `
FROM evidence
WHERE case_id = $1 AND (node_id = ANY($2) OR edge_id = ANY($3))
ORDER BY embedding <=> $4, created_at, evidence_id
LIMIT $5`
		args = []any{q.CaseID, q.NodeIDs, q.EdgeIDs, pgvector.NewVector(q.Embedding), q.Limit}
	} else {
		sql = `SELECT ` + evidenceColumns + `
FROM evidence
WHERE case_id = $1 AND (node_id = ANY($2) OR edge_id = ANY($3))
ORDER BY created_at, evidence_id
LIMIT $4`
		args = []any{q.CaseID, q.NodeIDs, q.EdgeIDs, q.Limit}
	}

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("evidence query failed: %w", err)
	}
	defer rows.Close()

	snippets := make([]common.EvidenceSnippet, 0, q.Limit)
	for rows.Next() {
		var (
			snippet common.EvidenceSnippet
			claimID *string
		)
		if err := rows.Scan(&snippet.EvidenceID, &claimID, &snippet.Text, &snippet.Sensitivity); err != nil {
			return nil, err
		}
		if claimID != nil {
			snippet.ClaimID = *claimID
		}
		snippets = append(snippets, snippet)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snippets, nil
}
