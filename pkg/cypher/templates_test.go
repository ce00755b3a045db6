package cypher

import (
	"strings"
	"testing"
)

// Every template in the catalog must itself pass the read-only validator and
// be anchored to the case parameter.
func TestDefaultTemplatesAreSafe(t *testing.T) {
	templates := DefaultTemplates()
	if len(templates) == 0 {
		t.Fatal("expected a non-empty template catalog")
	}

	for _, tpl := range templates {
		if err := ValidateReadOnly(tpl.Query); err != nil {
			t.Fatalf("template %q failed validation: %v", tpl.ID, err)
		}
		if !strings.Contains(tpl.Query, CaseParam) {
			t.Fatalf("template %q is not scoped to %s", tpl.ID, CaseParam)
		}
	}
}

func TestTemplateMatching(t *testing.T) {
	templates := DefaultTemplates()
	byID := make(map[string]Template, len(templates))
	for _, tpl := range templates {
		byID[tpl.ID] = tpl
	}

	tests := []struct {
		name       string
		question   string
		templateID string
		wantParams map[string]any
		wantMatch  bool
	}{
		{
			name:       "shortest path with quoted names",
			question:   "Find connection between 'Acme Corp' and 'John Doe'",
			templateID: "shortest_path",
			wantParams: map[string]any{"source": "Acme Corp", "target": "John Doe"},
			wantMatch:  true,
		},
		{
			name:       "shortest path unquoted",
			question:   "What is the relationship between Maria Keller and Orion Ltd?",
			templateID: "shortest_path",
			wantParams: map[string]any{"source": "Maria Keller", "target": "Orion Ltd"},
			wantMatch:  true,
		},
		{
			name:       "timeline",
			question:   "Show the timeline of 'Account 4711'",
			templateID: "timeline",
			wantParams: map[string]any{"entity": "Account 4711"},
			wantMatch:  true,
		},
		{
			name:       "neighbors",
			question:   "Who is connected to John Doe?",
			templateID: "neighbors",
			wantParams: map[string]any{"entity": "John Doe"},
			wantMatch:  true,
		},
		{
			name:       "evidence",
			question:   "What evidence for the wire transfer?",
			templateID: "evidence_for",
			wantParams: map[string]any{"entity": "the wire transfer"},
			wantMatch:  true,
		},
		{
			name:       "case overview",
			question:   "Summarize the case.",
			templateID: "case_overview",
			wantParams: map[string]any{},
			wantMatch:  true,
		},
		{
			name:       "no match",
			question:   "Why did the suspect act this way?",
			templateID: "shortest_path",
			wantMatch:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, ok := byID[tt.templateID]
			if !ok {
				t.Fatalf("template %q not in catalog", tt.templateID)
			}

			params, matched := tpl.Match(tt.question)
			if matched != tt.wantMatch {
				t.Fatalf("match = %v, want %v", matched, tt.wantMatch)
			}
			if !tt.wantMatch {
				return
			}

			if len(params) != len(tt.wantParams) {
				t.Fatalf("got %d params, want %d: %v", len(params), len(tt.wantParams), params)
			}
			for k, want := range tt.wantParams {
				if got := params[k]; got != want {
					t.Fatalf("param %q = %v, want %v", k, got, want)
				}
			}
		})
	}
}

// The catalog is ordered and first match wins; a question that only the
// overview template understands must not be claimed by an earlier template.
func TestTemplateOrderIsStable(t *testing.T) {
	templates := DefaultTemplates()

	question := "Summarize the case"
	for _, tpl := range templates {
		if _, ok := tpl.Match(question); ok {
			if tpl.ID != "case_overview" {
				t.Fatalf("question matched template %q before case_overview", tpl.ID)
			}
			return
		}
	}
	t.Fatal("no template matched the overview question")
}
