package rag

import "errors"

// Terminal pipeline errors. Policy and query-generation failures fail the
// request fast; adapter failures never surface as errors — they degrade the
// answer in place.
var (
	// ErrPolicyViolation means the requester has no access to the case. The
	// caller must surface only the fixed denial message.
	ErrPolicyViolation = errors.New("access to this case is denied")

	// ErrQueryGeneration means neither a template nor a validated model query
	// could be produced. Distinct from a policy error; the safety gate is
	// never relaxed to rescue a failed translation.
	ErrQueryGeneration = errors.New("question could not be translated into a case query")

	// ErrPolicyCheck means the policy engine itself failed. Terminal: when
	// access cannot be decided, no partial answer is produced.
	ErrPolicyCheck = errors.New("policy check failed")
)

// Fixed user-facing texts. Internal error details are logged, never returned.
const (
	// AccessDeniedText is the only thing a denied requester sees.
	AccessDeniedText = "You do not have access to this case."

	// NoEvidenceText is the designed fallback when policy filtering leaves no
	// citable evidence. Not an error.
	NoEvidenceText = "No accessible evidence in this case supports an answer to that question."

	// SystemErrorText replaces the answer when a backend or model failure
	// occurs. Provider error text must never reach the caller.
	SystemErrorText = "Something went wrong while answering this question. Please try again."

	// UnverifiedClaimsNote is appended to unknowns when every citation of a
	// non-empty draft was stripped by the citation gate.
	UnverifiedClaimsNote = "The answer contained claims that could not be verified against accessible evidence; all citations were removed."
)
