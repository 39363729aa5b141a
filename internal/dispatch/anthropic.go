package dispatch

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cryptogyan1/tgbot/internal/config"
)

const defaultAnthropicMaxTokens = 4096

// anthropicText serves text descriptors whose provider is anthropic.
type anthropicText struct {
	client anthropic.Client
}

func newAnthropicText(apiKey string, hc *http.Client, opts ...option.RequestOption) *anthropicText {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(hc),
	}, opts...)

	return &anthropicText{client: anthropic.NewClient(opts...)}
}

func (a *anthropicText) generate(ctx context.Context, desc config.ModelDescriptor, input string) (*Result, error) {
	maxTokens := int64(desc.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(desc.APIModel),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(input)),
		},
	}
	if desc.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(desc.Temperature))
	}
	if desc.TopP > 0 {
		params.TopP = anthropic.Float(float64(desc.TopP))
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, errors.New("no text content in response")
	}

	return &Result{Kind: config.CategoryText, Text: text.String()}, nil
}
