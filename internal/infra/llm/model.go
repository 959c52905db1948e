// Package llm wraps the langchaingo model behind the small surface the
// handlers need. Every call is a single attempt with no retry; callers
// decide whether a failure degrades the feature or fails the request.
package llm

import (
	"context"
	"fmt"

	"agent-suite/internal/config"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates the LLM client selected by LLM_PROVIDER.
func NewModel() (*Model, error) {
	provider := config.GetEnvDefault("LLM_PROVIDER", ProviderOpenAI)
	modelName := config.GetEnvDefault("LLM_MODEL", defaultModel(provider))

	var model llms.Model
	var err error

	switch provider {
	case ProviderOpenAI:
		model, err = openai.New(
			openai.WithToken(config.GetEnv("OPENAI_API_KEY")),
			openai.WithModel(modelName),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case ProviderAnthropic:
		model, err = anthropic.New(
			anthropic.WithToken(config.GetEnv("ANTHROPIC_API_KEY")),
			anthropic.WithModel(modelName),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(modelName),
			ollama.WithServerURL(config.GetEnvDefault("OLLAMA_HOST", "http://localhost:11434")),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	return &Model{llm: model, modelName: modelName}, nil
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-haiku-20240307"
	case ProviderOllama:
		return "llama3"
	default:
		return "gpt-4o-mini"
	}
}

// Generate generates text from a single prompt.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return response, nil
}

// GenerateWithSystem generates text with a system prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate with system: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}

// Model returns the configured model name.
func (m *Model) Model() string {
	return m.modelName
}
