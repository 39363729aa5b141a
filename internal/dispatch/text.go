package dispatch

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cryptogyan1/tgbot/internal/config"
)

// text issues an OpenAI-compatible chat completion with the prompt as the only user message.
func (c *Client) text(ctx context.Context, desc config.ModelDescriptor, credential, input string) (*Result, error) {
	cfg := openai.DefaultConfig(credential)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = c.http

	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: desc.APIModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
		MaxTokens:   desc.MaxTokens,
		Temperature: desc.Temperature,
		TopP:        desc.TopP,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}

	return &Result{Kind: config.CategoryText, Text: resp.Choices[0].Message.Content}, nil
}
