package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/inquest-labs/inquest/backend/pkg/ai"
)

// GenerateAnswer drafts an answer for the given context payload using a JSON
// schema to enforce the draft-answer structure.
func (c *CaseOpenAIClient) GenerateAnswer(
	ctx context.Context,
	payload ai.ContextPayload,
	opts ...ai.GenerateOption,
) (*ai.DraftAnswer, error) {
	if c.ChatClient == nil {
		return nil, fmt.Errorf("openai chat client is not configured")
	}

	options := ai.GenerateOptions{
		Model:       c.answerModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	schema := ai.GenerateSchema(ai.DraftAnswer{})
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "draft_answer",
		Description: openai.String("A cited answer about an investigation case"),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	msgs := []openai.ChatCompletionMessageParamUnion{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.SystemMessage(fmt.Sprintf(ai.AnswerPrompt, ai.FormatContextPayload(payload))))
	msgs = append(msgs, openai.UserMessage(payload.Question))

	body := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(options.Model),
		Messages: msgs,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Temperature: openai.Float(options.Temperature),
	}

	if options.Thinking != "" {
		// gpt-5 models only support temperature 1.0 when reasoning is enabled
		if c.chatURL == "" {
			body.Temperature = openai.Float(1.0)
		}
		body.ReasoningEffort = shared.ReasoningEffort(options.Thinking)
	}

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   time.Since(start).Milliseconds(),
	})

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	draft := new(ai.DraftAnswer)
	if err := ai.UnmarshalFlexible(response.Choices[0].Message.Content, draft); err != nil {
		return nil, fmt.Errorf("failed to parse draft answer: %w", err)
	}

	return draft, nil
}

// GenerateQuery produces raw query text for the given prompt. The output is
// unvalidated; the query generator is responsible for rejecting unsafe text.
func (c *CaseOpenAIClient) GenerateQuery(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	if c.ChatClient == nil {
		return "", fmt.Errorf("openai chat client is not configured")
	}

	options := ai.GenerateOptions{
		Model:       c.queryModel,
		Temperature: 0.0,
	}
	for _, o := range opts {
		o(&options)
	}

	msgs := []openai.ChatCompletionMessageParamUnion{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   time.Since(start).Milliseconds(),
	})

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return ai.StripCodeFences(response.Choices[0].Message.Content), nil
}

// GenerateEmbedding embeds the input with the configured embedding model.
func (c *CaseOpenAIClient) GenerateEmbedding(
	ctx context.Context,
	input []byte,
) ([]float32, error) {
	if c.EmbeddingClient == nil {
		return nil, fmt.Errorf("openai embedding client is not configured")
	}

	response, err := c.EmbeddingClient.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(string(input)),
		},
	})
	if err != nil {
		return nil, err
	}

	if len(response.Data) == 0 {
		return nil, fmt.Errorf("openai returned no embedding data")
	}

	embedding := make([]float32, len(response.Data[0].Embedding))
	for i, v := range response.Data[0].Embedding {
		embedding[i] = float32(v)
	}

	return embedding, nil
}
