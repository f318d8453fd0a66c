package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI is a CompletionClient backed by the OpenAI chat completion API.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI creates a new OpenAI client. baseURL may be empty to use the
// default endpoint, or point at any compatible service.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(config)}
}

// Complete sends a single chat-completion request and returns the first
// choice's content with surrounding whitespace trimmed.
func (o *OpenAI) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: &req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// compile-time check to ensure OpenAI implements the CompletionClient interface
var _ CompletionClient = (*OpenAI)(nil)
