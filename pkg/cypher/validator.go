package cypher

import (
	"fmt"
	"regexp"
	"strings"
)

// Mutation and administrative keywords a generated query must never contain.
// Matching is case-insensitive and on word boundaries, so identifiers that
// merely contain a keyword ("asset", "recreated") pass.
var forbiddenKeywords = []string{
	"CREATE",
	"MERGE",
	"DELETE",
	"DETACH",
	"SET",
	"REMOVE",
	"DROP",
	"CALL",
	"GRANT",
	"REVOKE",
	"DENY",
}

var (
	reForbidden = regexp.MustCompile(`(?i)\b(` + strings.Join(forbiddenKeywords, "|") + `)\b`)
	reLoadCSV   = regexp.MustCompile(`(?i)\bLOAD\s+CSV\b`)
)

// CaseParam is the bound parameter every query must be scoped to.
const CaseParam = "$caseId"

// ValidateReadOnly rejects query text containing mutation or administrative
// keywords, or text that is not scoped to the case parameter.
//
// This is a keyword scan, not a parser. The execution path additionally runs
// every query on a read-only transaction.
func ValidateReadOnly(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query text is empty")
	}

	if m := reForbidden.FindString(query); m != "" {
		return fmt.Errorf("query contains forbidden keyword %q", strings.ToUpper(m))
	}

	if reLoadCSV.MatchString(query) {
		return fmt.Errorf("query contains forbidden keyword \"LOAD CSV\"")
	}

	if !strings.Contains(query, CaseParam) {
		return fmt.Errorf("query does not reference the %s parameter", CaseParam)
	}

	return nil
}
