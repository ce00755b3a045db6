package ai

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/inquest-labs/inquest/backend/pkg/common"
	"github.com/inquest-labs/inquest/backend/pkg/logger"
)

// TokenCounter estimates token counts for payload budgeting.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter returns a counter backed by the o200k_base encoding. If the
// encoding cannot be loaded it falls back to a character-based estimate, so
// budgeting still bounds the payload.
func NewTokenCounter() *TokenCounter {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		logger.Warn("Failed to load token encoding, using character estimate", "err", err)
		return &TokenCounter{}
	}
	return &TokenCounter{enc: enc}
}

// Count returns the token count of the given text.
func (c *TokenCounter) Count(text string) int {
	if c == nil || c.enc == nil {
		// rough heuristic: one token per four characters
		return (len(text) + 3) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

// ClampEvidence drops trailing evidence snippets once the running token count
// exceeds budget. Order is preserved, so the caller's ranking decides what
// survives. A budget <= 0 disables clamping.
func (c *TokenCounter) ClampEvidence(snippets []common.EvidenceSnippet, budget int) []common.EvidenceSnippet {
	if budget <= 0 {
		return snippets
	}

	used := 0
	kept := make([]common.EvidenceSnippet, 0, len(snippets))
	for _, s := range snippets {
		n := c.Count(s.Text)
		if used+n > budget && len(kept) > 0 {
			break
		}
		used += n
		kept = append(kept, s)
	}

	return kept
}
