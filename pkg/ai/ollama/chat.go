package ollama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"

	"github.com/inquest-labs/inquest/backend/pkg/ai"
)

// GenerateAnswer drafts an answer for the given context payload. The schema
// of the draft answer is enforced through Ollama's structured output format.
func (c *CaseOllamaClient) GenerateAnswer(
	ctx context.Context,
	payload ai.ContextPayload,
	opts ...ai.GenerateOption,
) (*ai.DraftAnswer, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	options := ai.GenerateOptions{
		Model:       c.answerModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	schema, err := json.Marshal(ai.GenerateSchema(ai.DraftAnswer{}))
	if err != nil {
		return nil, err
	}

	systemPrompt := fmt.Sprintf(ai.AnswerPrompt, ai.FormatContextPayload(payload))
	msgs := []api.Message{
		{Role: "system", Content: systemPrompt},
	}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: payload.Question})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Format:   json.RawMessage(schema),
		Options:  map[string]any{"temperature": options.Temperature},
	}

	if options.Thinking != "" {
		req.Think = &api.ThinkValue{Value: options.Thinking}
	}

	c.raiseContextWindow(req, systemPrompt+payload.Question)

	final, err := c.chat(ctx, req)
	if err != nil {
		return nil, err
	}

	draft := new(ai.DraftAnswer)
	if err := ai.UnmarshalFlexible(final.Message.Content, draft); err != nil {
		return nil, fmt.Errorf("failed to parse draft answer: %w", err)
	}

	return draft, nil
}

// GenerateQuery produces raw query text for the given prompt. The output is
// unvalidated; the query generator is responsible for rejecting unsafe text.
func (c *CaseOllamaClient) GenerateQuery(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	options := ai.GenerateOptions{
		Model:       c.queryModel,
		Temperature: 0.0,
	}
	for _, o := range opts {
		o(&options)
	}

	msgs := []api.Message{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	c.raiseContextWindow(req, prompt)

	final, err := c.chat(ctx, req)
	if err != nil {
		return "", err
	}

	return ai.StripCodeFences(final.Message.Content), nil
}

// GenerateEmbedding embeds the input with the configured embedding model.
func (c *CaseOllamaClient) GenerateEmbedding(
	ctx context.Context,
	input []byte,
) ([]float32, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	resp, err := c.Client.Embed(ctx, &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: string(input),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama returned no embedding data")
	}

	return resp.Embeddings[0], nil
}

func (c *CaseOllamaClient) chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	return &final, nil
}

// raiseContextWindow bumps num_ctx when the prompt would overflow the Ollama
// default context window.
func (c *CaseOllamaClient) raiseContextWindow(req *api.ChatRequest, prompt string) {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return
	}

	tokens := 200 + len(enc.Encode(prompt, nil, nil))
	if tokens > 4096 {
		if req.Options == nil {
			req.Options = map[string]any{}
		}
		req.Options["num_ctx"] = tokens
	}
}
