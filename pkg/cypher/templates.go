package cypher

import (
	"regexp"
	"strings"
)

// Matcher inspects a question and, on a match, extracts the free-text
// parameters the template needs. Extracted values are always bound as query
// parameters, never interpolated into query text.
type Matcher func(question string) (map[string]any, bool)

// Template pairs a deterministic question matcher with pre-validated query
// text. Every template query is hard-scoped: it matches the case node via the
// bound $caseId parameter and reaches all other nodes through relationships
// anchored to that node.
type Template struct {
	ID    string
	Match Matcher
	Query string
}

var (
	reShortestPath = regexp.MustCompile(`(?i)(?:connection|path|link|relation(?:ship)?)s?\s+between\s+['"]?([^'"]+?)['"]?\s+and\s+['"]?([^'"]+?)['"]?\s*[.?!]*$`)
	reTimeline     = regexp.MustCompile(`(?i)(?:timeline|chronology|sequence\s+of\s+events)\s+(?:of|for|around)\s+['"]?([^'"]+?)['"]?\s*[.?!]*$`)
	reNeighbors    = regexp.MustCompile(`(?i)(?:who|what)\s+is\s+(?:connected|linked|related)\s+to\s+['"]?([^'"]+?)['"]?\s*[.?!]*$`)
	reEvidence     = regexp.MustCompile(`(?i)(?:what\s+)?evidence\s+(?:for|about|on|against)\s+['"]?([^'"]+?)['"]?\s*[.?!]*$`)
	reOverview     = regexp.MustCompile(`(?i)^\s*(?:summarize|summarise|overview\s+of|describe)\s+(?:the\s+|this\s+)?case\s*[.?!]*$`)
)

func regexMatcher(re *regexp.Regexp, names ...string) Matcher {
	return func(question string) (map[string]any, bool) {
		m := re.FindStringSubmatch(strings.TrimSpace(question))
		if m == nil {
			return nil, false
		}

		params := make(map[string]any, len(names))
		for i, name := range names {
			params[name] = strings.TrimSpace(m[i+1])
		}
		return params, true
	}
}

// DefaultTemplates returns the built-in template catalog in match order.
// First match wins. The catalog is passed to the generator at construction
// time so tests can run with partial catalogs.
func DefaultTemplates() []Template {
	return []Template{
		{
			ID:    "shortest_path",
			Match: regexMatcher(reShortestPath, "source", "target"),
			Query: `MATCH (c:Case {id: $caseId})
MATCH (c)-[:INVOLVES]->(a {name: $source})
MATCH (c)-[:INVOLVES]->(b {name: $target})
MATCH p = shortestPath((a)-[*..6]-(b))
RETURN p`,
		},
		{
			ID:    "timeline",
			Match: regexMatcher(reTimeline, "entity"),
			Query: `MATCH (c:Case {id: $caseId})
MATCH (c)-[:INVOLVES]->(e {name: $entity})
MATCH (e)-[r]-(ev:Event)
RETURN e, r, ev
ORDER BY ev.occurred_at`,
		},
		{
			ID:    "neighbors",
			Match: regexMatcher(reNeighbors, "entity"),
			Query: `MATCH (c:Case {id: $caseId})
MATCH (c)-[:INVOLVES]->(e {name: $entity})
MATCH (e)-[r]-(n)
RETURN e, r, n`,
		},
		{
			ID:    "evidence_for",
			Match: regexMatcher(reEvidence, "entity"),
			Query: `MATCH (c:Case {id: $caseId})
MATCH (c)-[:INVOLVES]->(e {name: $entity})
MATCH (e)-[r:SUPPORTED_BY]->(ev:Evidence)
RETURN e, r, ev`,
		},
		{
			ID:    "case_overview",
			Match: regexMatcher(reOverview),
			Query: `MATCH (c:Case {id: $caseId})
MATCH (c)-[r:INVOLVES]->(n)
RETURN c, r, n`,
		},
	}
}
