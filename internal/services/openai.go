package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/jarvis/internal/shared"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	oshared "github.com/openai/openai-go/shared"
)

// DefaultChatModel matches the model the assistant has always used.
const DefaultChatModel = "gpt-3.5-turbo"

// OpenAIService answers chat prompts with OpenAI chat completions.
type OpenAIService struct {
	client openai.Client
	model  string
}

// NewOpenAIService creates a chat completer. Extra request options (base URL,
// HTTP client, retries) are passed through to the SDK.
func NewOpenAIService(cfg shared.OpenAIConfig, opts ...option.RequestOption) (*OpenAIService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api_key", shared.ErrMissingCredentials)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}

	opts = append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	return &OpenAIService{client: openai.NewClient(opts...), model: model}, nil
}

// Complete sends prompt as a single user message and returns the trimmed first choice.
func (o *OpenAIService) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    oshared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", shared.ErrAPIRequest, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", shared.ErrAPIRequest)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
