package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const requestIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewRequestID returns a new url-safe request identifier. Request IDs are
// attached to responses and audit records so a caller-reported answer can be
// matched to its audit trail.
func NewRequestID() string {
	return gonanoid.MustGenerate(requestIDAlphabet, 21)
}
