package cypher

import (
	"context"
	"errors"
	"testing"

	"github.com/inquest-labs/inquest/backend/pkg/ai"
	"github.com/inquest-labs/inquest/backend/pkg/common"
)

type stubModel struct {
	queryText  string
	queryErr   error
	queryCalls int
}

func (s *stubModel) GenerateAnswer(ctx context.Context, payload ai.ContextPayload, opts ...ai.GenerateOption) (*ai.DraftAnswer, error) {
	return nil, errors.New("not implemented")
}

func (s *stubModel) GenerateQuery(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	s.queryCalls++
	return s.queryText, s.queryErr
}

func (s *stubModel) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (s *stubModel) ResetMetrics()               {}
func (s *stubModel) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func testSchema() common.SchemaContext {
	return common.SchemaContext{
		SchemaSummary: "Nodes: Case, Person. Edges: INVOLVES.",
		TenantID:      "tenant-1",
		CaseID:        "case-42",
	}
}

func TestGenerateTemplateFirst(t *testing.T) {
	model := &stubModel{queryText: "MATCH (c:Case {id: $caseId}) RETURN c"}
	gen := NewGenerator(DefaultTemplates(), model, 4)

	res, err := gen.Generate(context.Background(), "Find connection between 'Acme Corp' and 'John Doe'", testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Mode != ModeTemplate {
		t.Fatalf("mode = %q, want %q", res.Mode, ModeTemplate)
	}
	if res.TemplateID != "shortest_path" {
		t.Fatalf("template id = %q, want shortest_path", res.TemplateID)
	}
	if res.Confidence != TemplateConfidence {
		t.Fatalf("confidence = %v, want %v", res.Confidence, TemplateConfidence)
	}
	if res.Params["caseId"] != "case-42" {
		t.Fatalf("caseId param = %v, want case-42", res.Params["caseId"])
	}
	if res.Params["source"] != "Acme Corp" || res.Params["target"] != "John Doe" {
		t.Fatalf("unexpected extracted params: %v", res.Params)
	}
	if model.queryCalls != 0 {
		t.Fatalf("model was called %d times for a template match", model.queryCalls)
	}
}

func TestGenerateModelFallback(t *testing.T) {
	model := &stubModel{queryText: "MATCH (c:Case {id: $caseId})-[r]->(n) RETURN n"}
	gen := NewGenerator(DefaultTemplates(), model, 4)

	res, err := gen.Generate(context.Background(), "Which accounts received money indirectly?", testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Mode != ModeModel {
		t.Fatalf("mode = %q, want %q", res.Mode, ModeModel)
	}
	if res.Confidence != ModelConfidence {
		t.Fatalf("confidence = %v, want %v", res.Confidence, ModelConfidence)
	}
	if res.Params["caseId"] != "case-42" {
		t.Fatalf("caseId param = %v, want case-42", res.Params["caseId"])
	}
	if model.queryCalls != 1 {
		t.Fatalf("model called %d times, want 1", model.queryCalls)
	}
}

func TestGenerateRejectsUnsafeModelQuery(t *testing.T) {
	tests := []struct {
		name      string
		queryText string
	}{
		{"mutation", "MATCH (c:Case {id: $caseId}) DELETE c"},
		{"unscoped", "MATCH (n) RETURN n"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &stubModel{queryText: tt.queryText}
			gen := NewGenerator(DefaultTemplates(), model, 4)

			_, err := gen.Generate(context.Background(), "Which accounts received money indirectly?", testSchema())
			if !errors.Is(err, ErrNotTranslatable) {
				t.Fatalf("err = %v, want ErrNotTranslatable", err)
			}
		})
	}
}

func TestGenerateModelFailure(t *testing.T) {
	model := &stubModel{queryErr: errors.New("upstream timeout")}
	gen := NewGenerator(DefaultTemplates(), model, 4)

	_, err := gen.Generate(context.Background(), "Which accounts received money indirectly?", testSchema())
	if !errors.Is(err, ErrNotTranslatable) {
		t.Fatalf("err = %v, want ErrNotTranslatable", err)
	}
}

func TestGenerateWithoutModel(t *testing.T) {
	gen := NewGenerator(DefaultTemplates(), nil, 4)

	_, err := gen.Generate(context.Background(), "Which accounts received money indirectly?", testSchema())
	if !errors.Is(err, ErrNotTranslatable) {
		t.Fatalf("err = %v, want ErrNotTranslatable", err)
	}
}
