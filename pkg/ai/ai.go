package ai

import (
	"context"

	"github.com/inquest-labs/inquest/backend/pkg/common"
)

// ContextPayload is the structured context handed to the model for answer
// generation. It must only ever be built from a policy-filtered graph
// context; the adapter treats it as opaque.
type ContextPayload struct {
	Question string                   `json:"question"`
	Nodes    []common.Node            `json:"nodes"`
	Edges    []common.Edge            `json:"edges"`
	Evidence []common.EvidenceSnippet `json:"evidence"`
}

// DraftAnswer is the untrusted output of the answer model. Citations and
// answer text must pass the citation gate before leaving the pipeline.
type DraftAnswer struct {
	AnswerText string            `json:"answer_text"`
	Citations  []common.Citation `json:"citations"`
	Unknowns   []string          `json:"unknowns"`
}

// GenerateOptions holds configuration for model generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
	Thinking      string   // Extended thinking mode configuration
}

// GenerateOption is a functional option for configuring model generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithThinking returns a GenerateOption that enables extended thinking mode.
func WithThinking(thinking string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Thinking = thinking
	}
}

// ModelMetrics contains performance metrics from model operations.
type ModelMetrics struct {
	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	TotalTokens  int   `json:"total_tokens"`
	DurationMs   int64 `json:"duration_ms"`
}

// ModelClient defines the interface to the language-model provider used by
// the answering pipeline. Implementations are external collaborators; their
// output is never trusted until validated downstream.
type ModelClient interface {
	// GenerateAnswer drafts an answer from the given context payload. The
	// returned citations are claims, not facts.
	GenerateAnswer(
		ctx context.Context,
		payload ContextPayload,
		opts ...GenerateOption,
	) (*DraftAnswer, error)

	// GenerateQuery produces raw graph query text for the given prompt.
	// Callers must validate the result before executing it.
	GenerateQuery(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)

	// GenerateEmbedding embeds the input for similarity-ranked evidence
	// retrieval.
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}
