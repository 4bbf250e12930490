//go:build !noopenai

package openai

import (
	"context"
	"fmt"

	"github.com/longkey1/llmprobe/internal/chat"
	goopenai "github.com/sashabaranov/go-openai"
)

func init() {
	backend = newSDKCompleter
}

// sdkCompleter implements Completer with github.com/sashabaranov/go-openai
type sdkCompleter struct {
	client *goopenai.Client
}

func newSDKCompleter(baseURL, token string) (Completer, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	config := goopenai.DefaultConfig(token)
	config.BaseURL = baseURL
	return &sdkCompleter{
		client: goopenai.NewClientWithConfig(config),
	}, nil
}

// Complete sends the messages and returns the first choice's content
func (c *sdkCompleter) Complete(ctx context.Context, model string, messages []chat.Message) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]goopenai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("error creating chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}
