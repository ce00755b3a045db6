package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/inquest-labs/inquest/backend/pkg/common"
	"github.com/inquest-labs/inquest/backend/pkg/policy"
)

// AnswerSummary records whether a request produced an answer and how much of
// it was backed by citations.
type AnswerSummary struct {
	HasAnswer    bool `json:"has_answer"`
	NumCitations int  `json:"num_citations"`
	NumUnknowns  int  `json:"num_unknowns"`
}

// Record is the append-only audit entry written once per request, after the
// response is finalized. Records are chained: each one embeds the hash of
// its predecessor, so removing or rewriting an entry breaks the chain.
type Record struct {
	RequestID      string                `json:"request_id"`
	UserID         string                `json:"user_id"`
	CaseID         string                `json:"case_id"`
	Question       string                `json:"question"`
	ContextSummary common.ContextSummary `json:"context_summary"`
	AnswerSummary  AnswerSummary         `json:"answer_summary"`
	PolicyDecision *policy.Decision      `json:"policy_decision,omitempty"`
	// Dangling lists evidence ids of citations the gate removed.
	Dangling  []string  `json:"dangling_citations,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	PrevHash string `json:"prev_hash"`
	Hash     string `json:"hash"`
}

// Seal sets the record's chain fields: PrevHash from the preceding record
// and Hash over the record's canonical JSON with the Hash field blank.
func (r *Record) Seal(prevHash string) error {
	r.PrevHash = prevHash
	r.Hash = ""

	digest, err := digestOf(r)
	if err != nil {
		return err
	}
	r.Hash = digest

	return nil
}

// Verify recomputes the record hash and checks it against the stored one.
func (r Record) Verify() error {
	stored := r.Hash
	r.Hash = ""

	digest, err := digestOf(&r)
	if err != nil {
		return err
	}
	if digest != stored {
		return fmt.Errorf("audit record %s failed hash verification", r.RequestID)
	}

	return nil
}

func digestOf(r *Record) (string, error) {
	canonical, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyChain checks every record's hash and the prev-hash linkage of the
// sequence. The first record's PrevHash is expected to be empty.
func VerifyChain(records []Record) error {
	prev := ""
	for i, r := range records {
		if err := r.Verify(); err != nil {
			return err
		}
		if r.PrevHash != prev {
			return fmt.Errorf("audit chain broken at position %d (request %s)", i, r.RequestID)
		}
		prev = r.Hash
	}
	return nil
}

// Sink persists audit records. Append may fail independently of the request
// that produced the record; callers log such failures and move on.
type Sink interface {
	Append(ctx context.Context, record *Record) error
}

// MemorySink is an in-process sink used by tests and as a last-resort
// fallback when no broker is configured. It seals records into a chain.
type MemorySink struct {
	mu       sync.Mutex
	records  []Record
	lastHash string
}

// NewMemorySink creates an empty in-memory audit sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append implements Sink.
func (s *MemorySink) Append(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := record.Seal(s.lastHash); err != nil {
		return err
	}
	s.lastHash = record.Hash
	s.records = append(s.records, *record)

	return nil
}

// Records returns a copy of the appended records in order.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
