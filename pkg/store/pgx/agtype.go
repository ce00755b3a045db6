package pgx

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/inquest-labs/inquest/backend/pkg/common"
)

// AGE returns vertices, edges, and paths as agtype text: JSON annotated with
// ::vertex / ::edge / ::path suffixes, including inside path arrays. The
// decoder strips the annotations and maps elements onto common graph types.

type ageElement struct {
	ID         json.Number    `json:"id"`
	Label      string         `json:"label"`
	StartID    json.Number    `json:"start_id"`
	EndID      json.Number    `json:"end_id"`
	Properties map[string]any `json:"properties"`
}

var agtypeAnnotations = strings.NewReplacer("::vertex", "", "::edge", "", "::path", "")

// decodeAgtype decodes one agtype column value. Edge endpoints are AGE's
// internal graphids at this point; idMap collects graphid → application id
// so the caller can remap them once all rows are read.
func decodeAgtype(raw string, idMap map[string]string) ([]common.Node, []common.Edge, error) {
	cleaned := strings.TrimSpace(agtypeAnnotations.Replace(raw))
	if cleaned == "" || cleaned == "null" {
		return nil, nil, nil
	}

	var elements []ageElement
	switch {
	case strings.HasPrefix(cleaned, "["):
		if err := json.Unmarshal([]byte(cleaned), &elements); err != nil {
			return nil, nil, fmt.Errorf("failed to decode agtype path: %w", err)
		}
	case strings.HasPrefix(cleaned, "{"):
		var el ageElement
		if err := json.Unmarshal([]byte(cleaned), &el); err != nil {
			return nil, nil, fmt.Errorf("failed to decode agtype value: %w", err)
		}
		elements = []ageElement{el}
	default:
		// scalar projection, nothing graph-shaped to collect
		return nil, nil, nil
	}

	var nodes []common.Node
	var edges []common.Edge
	for _, el := range elements {
		if el.StartID != "" {
			edges = append(edges, common.Edge{
				ID:        elementID(el.ID, el.Properties),
				Type:      el.Label,
				SourceID:  el.StartID.String(),
				TargetID:  el.EndID.String(),
				Props:     el.Properties,
				CreatedAt: elementCreatedAt(el.Properties),
			})
			continue
		}

		id := elementID(el.ID, el.Properties)
		idMap[el.ID.String()] = id
		nodes = append(nodes, common.Node{
			ID:        id,
			Type:      el.Label,
			Label:     elementName(el.Properties),
			Props:     el.Properties,
			CreatedAt: elementCreatedAt(el.Properties),
		})
	}

	return nodes, edges, nil
}

// remapEdgeEndpoints rewrites AGE graphid endpoints to application node ids
// where the node was part of the result.
func remapEdgeEndpoints(edges []common.Edge, idMap map[string]string) {
	for i := range edges {
		if id, ok := idMap[edges[i].SourceID]; ok {
			edges[i].SourceID = id
		}
		if id, ok := idMap[edges[i].TargetID]; ok {
			edges[i].TargetID = id
		}
	}
}

// elementID prefers the application-level id property over AGE's internal
// graphid, so evidence rows keyed by application ids stay joinable.
func elementID(graphID json.Number, props map[string]any) string {
	if props != nil {
		if id, ok := props["id"].(string); ok && id != "" {
			return id
		}
	}
	return graphID.String()
}

func elementName(props map[string]any) string {
	if props == nil {
		return ""
	}
	if name, ok := props["name"].(string); ok {
		return name
	}
	return ""
}

func elementCreatedAt(props map[string]any) time.Time {
	if props == nil {
		return time.Time{}
	}
	switch v := props["created_at"].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	case float64:
		return time.Unix(int64(v), 0).UTC()
	}
	return time.Time{}
}
