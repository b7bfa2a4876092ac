package commentary

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultModel = "gpt-4o-mini"
	maxTokens    = 200
	temperature  = 0.8
)

// OpenAIConfig holds configuration for the OpenAI completer
type OpenAIConfig struct {
	APIKey string
	Model  string

	// BaseURL overrides the API endpoint
	BaseURL string
}

// OpenAICompleter implements Completer with chat completions
type OpenAICompleter struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a completer
func NewOpenAI(cfg *OpenAIConfig) (*OpenAICompleter, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("API key cannot be empty")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &OpenAICompleter{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Complete runs one chat completion
func (c *OpenAICompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(c.model),
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
