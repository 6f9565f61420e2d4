package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/litmer/backend/internal/config"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// TextModel is the external generative model: a text prompt in, free text
// out. The model's output is never trusted as structured data; all parsing
// happens on this side.
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewTextModel builds the provider-specific client from config. Returns nil
// when no API key is configured (ollama excepted, which needs none); callers
// treat a nil model as a permanent unavailable condition.
func NewTextModel(cfg *config.AIConfig) TextModel {
	if cfg.APIKey == "" && cfg.Provider != "ollama" {
		return nil
	}

	switch cfg.Provider {
	case "anthropic":
		return &anthropicModel{cfg: cfg}
	case "ollama":
		return &ollamaModel{cfg: cfg}
	case "gemini":
		return &geminiModel{cfg: cfg}
	default:
		// openai and OpenAI-compatible endpoints
		return &openaiModel{cfg: cfg}
	}
}

type openaiModel struct {
	cfg *config.AIConfig
}

func (m *openaiModel) Generate(ctx context.Context, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(m.cfg.APIKey)
	if m.cfg.BaseURL != "" {
		clientConfig.BaseURL = m.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	model := m.cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type anthropicModel struct {
	cfg *config.AIConfig
}

func (m *anthropicModel) Generate(ctx context.Context, prompt string) (string, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(m.cfg.APIKey),
	)

	model := m.cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return strings.TrimSpace(content), nil
}

type ollamaModel struct {
	cfg *config.AIConfig
}

func (m *ollamaModel) Generate(ctx context.Context, prompt string) (string, error) {
	baseURL := m.cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := m.cfg.Model
	if model == "" {
		model = "llama3"
	}

	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}

	return strings.TrimSpace(content.String()), nil
}

type geminiModel struct {
	cfg *config.AIConfig
}

func (m *geminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: m.cfg.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := m.cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}
