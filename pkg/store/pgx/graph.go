package pgx

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inquest-labs/inquest/backend/pkg/store"
)

// GraphStore executes case-graph queries against PostgreSQL with the
// Apache AGE extension.
//
// Every query runs on a read-only transaction with the tenant id pinned via
// set_config; row-level security enforces tenant isolation independent of the
// query text.
type GraphStore struct {
	conn      *pgxpool.Pool
	graphName string
}

// NewGraphStore creates a GraphStore over the given pool and AGE graph name.
func NewGraphStore(conn *pgxpool.Pool, graphName string) *GraphStore {
	return &GraphStore{
		conn:      conn,
		graphName: graphName,
	}
}

// RunScopedQuery implements store.GraphRepository.
func (s *GraphStore) RunScopedQuery(
	ctx context.Context,
	query string,
	params map[string]any,
	tenantID string,
) (store.GraphResult, error) {
	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return store.GraphResult{}, fmt.Errorf("failed to begin read-only transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return store.GraphResult{}, fmt.Errorf("failed to pin tenant: %w", err)
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return store.GraphResult{}, err
	}

	// AGE takes the cypher text and the parameter map as literals inside the
	// cypher() call; the query text arriving here has already passed the
	// read-only validator or came from the static template catalog.
	sql := fmt.Sprintf(
		"SELECT v FROM ag_catalog.cypher(%s, %s, %s::ag_catalog.agtype) AS (v ag_catalog.agtype)",
		quoteLiteral(s.graphName),
		dollarQuote(query),
		quoteLiteral(string(paramsJSON)),
	)

	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return store.GraphResult{}, fmt.Errorf("graph query failed: %w", err)
	}
	defer rows.Close()

	result := store.GraphResult{}
	seenNodes := make(map[string]bool)
	seenEdges := make(map[string]bool)
	idMap := make(map[string]string)

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return store.GraphResult{}, err
		}

		nodes, edges, err := decodeAgtype(raw, idMap)
		if err != nil {
			return store.GraphResult{}, err
		}

		for _, n := range nodes {
			if seenNodes[n.ID] {
				continue
			}
			seenNodes[n.ID] = true
			result.Nodes = append(result.Nodes, n)
		}
		for _, e := range edges {
			if seenEdges[e.ID] {
				continue
			}
			seenEdges[e.ID] = true
			result.Edges = append(result.Edges, e)
		}
	}
	if err := rows.Err(); err != nil {
		return store.GraphResult{}, err
	}

	remapEdgeEndpoints(result.Edges, idMap)

	return result, nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// dollarQuote wraps the query in a dollar-quoted literal, picking a tag that
// does not occur in the text.
func dollarQuote(s string) string {
	tag := "$cy$"
	for i := 0; strings.Contains(s, tag); i++ {
		tag = fmt.Sprintf("$cy%d$", i)
	}
	return tag + s + tag
}
