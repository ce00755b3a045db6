package ai

import "testing"

func TestGenerateOptions(t *testing.T) {
	options := GenerateOptions{
		Model:       "default-model",
		Temperature: 0.1,
	}

	for _, o := range []GenerateOption{
		WithModel("answer-model"),
		WithSystemPrompts("first", "second"),
		WithTemperature(0.7),
		WithThinking("low"),
	} {
		o(&options)
	}

	if options.Model != "answer-model" {
		t.Fatalf("model = %q, want answer-model", options.Model)
	}
	if len(options.SystemPrompts) != 2 || options.SystemPrompts[0] != "first" {
		t.Fatalf("system prompts = %v", options.SystemPrompts)
	}
	if options.Temperature != 0.7 {
		t.Fatalf("temperature = %v, want 0.7", options.Temperature)
	}
	if options.Thinking != "low" {
		t.Fatalf("thinking = %q, want low", options.Thinking)
	}
}
