package ai

import (
	"fmt"
	"strings"
)

const AnswerPrompt = `
# Task Context
You are an assistant answering questions about a bounded investigation case.
You are given a graph neighborhood (nodes and relationships) and a list of
evidence snippets. The evidence snippets are the only citable material.

# Background Data
%s

# Detailed Task Description & Rules
- Answer the question using only the provided context.
- Cite every factual claim with the evidence id of the snippet that supports it.
- Never cite an evidence id that does not appear in the evidence list.
- If part of the question cannot be answered from the context, list it under unknowns instead of guessing.
- Keep the answer concise and factual.

# Output Formatting
Return a JSON object with this structure:
{
  "answer_text": "<the answer>",
  "citations": [
    {"evidence_id": "<id from the evidence list>", "claim_id": "<optional claim id>"}
  ],
  "unknowns": ["<question part that could not be answered>"]
}
`

const QueryGenerationPrompt = `
# Task Context
You translate a natural-language question about an investigation case into a
single read-only Cypher query.

# Background Data
Graph schema:
%s

# Detailed Task Description & Rules
- The query must start by matching the case node via the bound parameter $caseId and reach every other node through relationships anchored to that case node.
- The query must be read-only. Never use CREATE, MERGE, DELETE, SET, REMOVE, DROP, CALL or LOAD CSV.
- Bind all free text as parameters; never inline entity names into the query text.
- Limit variable-length patterns to at most %d hops.
- Return only the query text, no explanation and no code fences.

# Immediate Task Description or Request
Question: %s
`

// FormatContextPayload renders a context payload as the background-data
// section of the answer prompt. Evidence ids are rendered verbatim so the
// model can cite them.
func FormatContextPayload(p ContextPayload) string {
	var b strings.Builder

	b.WriteString("## Nodes\n")
	for _, n := range p.Nodes {
		fmt.Fprintf(&b, "- (%s) %s [%s]\n", n.ID, n.Label, n.Type)
	}

	b.WriteString("\n## Relationships\n")
	for _, e := range p.Edges {
		fmt.Fprintf(&b, "- (%s) %s -[%s]-> %s\n", e.ID, e.SourceID, e.Type, e.TargetID)
	}

	b.WriteString("\n## Evidence\n")
	for _, s := range p.Evidence {
		fmt.Fprintf(&b, "- [%s] %s\n", s.EvidenceID, s.Text)
	}

	return b.String()
}
