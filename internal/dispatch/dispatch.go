package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cryptogyan1/tgbot/internal/chat"
	"github.com/cryptogyan1/tgbot/internal/config"
	"github.com/cryptogyan1/tgbot/internal/logger"
)

var (
	ErrUnknownModel        = errors.New("unknown model")
	ErrProviderUnavailable = errors.New("model provider not configured")
	ErrDispatchFailed      = errors.New("dispatch failed")
)

// Error is a failed round trip for one model. It matches ErrDispatchFailed
// and the underlying cause with errors.Is.
type Error struct {
	Model string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Model, e.Cause)
}

func (e *Error) Unwrap() []error {
	return []error{ErrDispatchFailed, e.Cause}
}

// IsConfigError reports whether err comes from configuration rather than
// from the remote call, i.e. retrying the same request can never succeed.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnknownModel) || errors.Is(err, ErrProviderUnavailable)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (*Result, error)
}

type Request struct {
	Model      string // catalog key
	Credential string
	Input      string
	Indicator  chat.ActionSender
}

// Result is the normalized output of one generation.
type Result struct {
	Kind     config.Category
	Text     string
	Data     []byte
	Filename string
}

// Deliver sends the result to the user in the form its kind calls for.
func (r *Result) Deliver(conv chat.Conversation, rows ...[]chat.Button) error {
	switch r.Kind {
	case config.CategoryImage:
		return conv.ReplyWithPhoto(r.Data)
	case config.CategoryAudio:
		return conv.ReplyWithAudio(r.Data, r.Filename)
	default:
		return conv.Reply(r.Text, rows...)
	}
}

type Options struct {
	BaseURL         string
	AnthropicAPIKey string
	HTTPClient      *http.Client
}

// Client routes a request to the text, image or audio endpoint by the
// category of the selected model.
type Client struct {
	catalog   *config.Catalog
	baseURL   string
	http      *http.Client
	anthropic *anthropicText
}

func New(catalog *config.Catalog, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Minute}
	}

	c := &Client{
		catalog: catalog,
		baseURL: opts.BaseURL,
		http:    hc,
	}

	if opts.AnthropicAPIKey != "" {
		c.anthropic = newAnthropicText(opts.AnthropicAPIKey, hc)
	}

	return c
}

func (c *Client) Dispatch(ctx context.Context, req Request) (*Result, error) {
	desc, ok := c.catalog.Lookup(req.Model)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, req.Model)
	}

	if err := c.available(desc, req.Credential); err != nil {
		return nil, err
	}

	if req.Indicator != nil {
		if err := req.Indicator.SendChatAction(indicatorFor(desc.Category)); err != nil {
			logger.Debug("chat action failed", "error", err)
		}
	}

	start := time.Now()

	var (
		result *Result
		err    error
	)

	switch desc.Category {
	case config.CategoryText:
		if desc.Provider == "anthropic" {
			result, err = c.anthropic.generate(ctx, desc, req.Input)
		} else {
			result, err = c.text(ctx, desc, req.Credential, req.Input)
		}
	case config.CategoryImage:
		result, err = c.image(ctx, desc, req.Credential, req.Input)
	case config.CategoryAudio:
		result, err = c.audio(ctx, desc, req.Credential, req.Input)
	default:
		return nil, fmt.Errorf("%w: %q has category %q", ErrUnknownModel, desc.Key, desc.Category)
	}

	if err != nil {
		logger.Warn("dispatch failed", "model", desc.Key, "category", desc.Category, "error", err)
		return nil, &Error{Model: desc.Key, Cause: err}
	}

	logger.Debug("dispatch complete", "model", desc.Key, "category", desc.Category, "duration", time.Since(start))
	return result, nil
}

func (c *Client) available(desc config.ModelDescriptor, credential string) error {
	if desc.Provider == "anthropic" {
		if c.anthropic == nil {
			return fmt.Errorf("%w: %s needs ANTHROPIC_API_KEY", ErrProviderUnavailable, desc.Key)
		}
		return nil
	}

	if credential == "" {
		return fmt.Errorf("%w: no API key for %s", ErrProviderUnavailable, desc.Key)
	}
	return nil
}

func indicatorFor(category config.Category) chat.Action {
	switch category {
	case config.CategoryImage:
		return chat.ActionUploadPhoto
	case config.CategoryAudio:
		return chat.ActionUploadVoice
	default:
		return chat.ActionTyping
	}
}
