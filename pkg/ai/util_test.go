package ai

import (
	"testing"
)

func TestUnmarshalFlexible(t *testing.T) {
	type target struct {
		AnswerText string   `json:"answer_text"`
		Unknowns   []string `json:"unknowns"`
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "well formed",
			input: `{"answer_text": "ok", "unknowns": []}`,
			want:  "ok",
		},
		{
			name:  "double encoded",
			input: `"{\"answer_text\": \"ok\", \"unknowns\": []}"`,
			want:  "ok",
		},
		{
			name:  "trailing comma repaired",
			input: `{"answer_text": "ok", "unknowns": [],}`,
			want:  "ok",
		},
		{
			name:  "unquoted keys repaired",
			input: `{answer_text: "ok", unknowns: []}`,
			want:  "ok",
		},
		{
			name:    "not json at all",
			input:   "I cannot answer that question.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out target
			err := UnmarshalFlexible(tt.input, &out)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", out)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.AnswerText != tt.want {
				t.Fatalf("answer_text = %q, want %q", out.AnswerText, tt.want)
			}
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no fence",
			input: "MATCH (c:Case {id: $caseId}) RETURN c",
			want:  "MATCH (c:Case {id: $caseId}) RETURN c",
		},
		{
			name:  "plain fence",
			input: "```\nMATCH (c:Case {id: $caseId}) RETURN c\n```",
			want:  "MATCH (c:Case {id: $caseId}) RETURN c",
		},
		{
			name:  "fence with language tag",
			input: "```cypher\nMATCH (c:Case {id: $caseId}) RETURN c\n```",
			want:  "MATCH (c:Case {id: $caseId}) RETURN c",
		},
		{
			name:  "surrounding whitespace",
			input: "  ```cypher\nMATCH (c:Case {id: $caseId}) RETURN c\n```  ",
			want:  "MATCH (c:Case {id: $caseId}) RETURN c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.input); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(DraftAnswer{})
	if schema == nil {
		t.Fatal("schema is nil")
	}
}
