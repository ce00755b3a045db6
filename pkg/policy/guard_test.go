package policy

import (
	"context"
	"testing"
	"time"

	"github.com/inquest-labs/inquest/backend/pkg/common"
)

func analyst(clearance int) User {
	return User{
		ID:          "user-1",
		TenantID:    "tenant-1",
		Role:        "analyst",
		Clearance:   clearance,
		Permissions: []string{PermCaseRead},
	}
}

func TestCanAccessCase(t *testing.T) {
	guard := NewGuard(NewClearanceEngine())
	ctx := context.Background()

	tests := []struct {
		name     string
		user     User
		tenantID string
		want     bool
	}{
		{
			name:     "analyst with case read",
			user:     analyst(1),
			tenantID: "tenant-1",
			want:     true,
		},
		{
			name: "missing permission",
			user: User{
				ID:       "user-2",
				TenantID: "tenant-1",
				Role:     "viewer",
			},
			tenantID: "tenant-1",
			want:     false,
		},
		{
			name: "admin without explicit permission",
			user: User{
				ID:       "user-3",
				TenantID: "tenant-1",
				Role:     "admin",
			},
			tenantID: "tenant-1",
			want:     true,
		},
		{
			name:     "tenant mismatch",
			user:     analyst(5),
			tenantID: "tenant-2",
			want:     false,
		},
		{
			name: "admin never crosses tenants",
			user: User{
				ID:       "user-4",
				TenantID: "tenant-1",
				Role:     "admin",
			},
			tenantID: "tenant-2",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := guard.CanAccessCase(ctx, tt.user, tt.tenantID, "case-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("access = %v, want %v", got, tt.want)
			}
		})
	}
}

func sensitiveContext() common.GraphContext {
	now := time.Now()
	return common.GraphContext{
		Nodes: []common.Node{
			{ID: "n1", Type: "Person", Label: "John Doe", CreatedAt: now},
			{ID: "n2", Type: "Account", Label: "Account 4711", CreatedAt: now,
				Props: map[string]any{"sensitivity": 3}},
			{ID: "n3", Type: "Organization", Label: "Acme Corp", CreatedAt: now,
				Props: map[string]any{"sensitivity": float64(1)}},
		},
		Edges: []common.Edge{
			{ID: "e1", Type: "OWNS", SourceID: "n1", TargetID: "n2", CreatedAt: now},
			{ID: "e2", Type: "KNOWS", SourceID: "n1", TargetID: "n3", CreatedAt: now},
		},
		EvidenceSnippets: []common.EvidenceSnippet{
			{EvidenceID: "ev1", Text: "public statement", Sensitivity: 0},
			{EvidenceID: "ev2", Text: "bank records", Sensitivity: 3},
			{EvidenceID: "ev3", Text: "witness interview", Sensitivity: 1},
		},
	}
}

func TestApplyToContextFiltersBySensitivity(t *testing.T) {
	guard := NewGuard(NewClearanceEngine())
	ctx := context.Background()
	input := sensitiveContext()

	filtered, decision, err := guard.ApplyToContext(ctx, input, analyst(1), "case-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(filtered.Nodes) != 2 {
		t.Fatalf("kept %d nodes, want 2", len(filtered.Nodes))
	}
	for _, n := range filtered.Nodes {
		if n.ID == "n2" {
			t.Fatal("sensitive node n2 survived filtering")
		}
	}

	// e1 touches the filtered account node and must be dropped with it.
	if len(filtered.Edges) != 1 || filtered.Edges[0].ID != "e2" {
		t.Fatalf("kept edges %v, want only e2", filtered.Edges)
	}

	if decision.AllowedEvidenceCount != 2 || decision.FilteredEvidenceCount != 1 {
		t.Fatalf("decision = %+v, want 2 allowed / 1 filtered", decision)
	}
	for _, s := range filtered.EvidenceSnippets {
		if s.EvidenceID == "ev2" {
			t.Fatal("sensitive snippet ev2 survived filtering")
		}
	}
}

func TestApplyToContextAdminBypassesClearance(t *testing.T) {
	guard := NewGuard(NewClearanceEngine())
	admin := User{ID: "user-9", TenantID: "tenant-1", Role: "admin"}

	filtered, decision, err := guard.ApplyToContext(context.Background(), sensitiveContext(), admin, "case-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(filtered.Nodes) != 3 || len(filtered.Edges) != 2 || len(filtered.EvidenceSnippets) != 3 {
		t.Fatalf("admin context was filtered: %+v", filtered.Summary())
	}
	if decision.FilteredEvidenceCount != 0 || decision.AllowedEvidenceCount != 3 {
		t.Fatalf("decision = %+v, want 0 filtered / 3 allowed", decision)
	}
}

func TestApplyToContextDoesNotModifyInput(t *testing.T) {
	guard := NewGuard(NewClearanceEngine())
	input := sensitiveContext()

	before := input.Summary()
	if _, _, err := guard.ApplyToContext(context.Background(), input, analyst(0), "case-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if input.Summary() != before {
		t.Fatalf("input context was modified: %+v", input.Summary())
	}
	if input.Nodes[1].ID != "n2" || input.EvidenceSnippets[1].EvidenceID != "ev2" {
		t.Fatal("input slices were reordered")
	}
}
