package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cryptogyan1/tgbot/internal/config"
)

// Entry is one generated result kept for later download.
type Entry struct {
	UserID string
	RunID  string // drain run; empty for single prompts
	Index  int    // position in the original list, 1-based
	Model  string
	Kind   config.Category
	Prompt string
	Text   string
	Data   []byte
}

type textRecord struct {
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive uploads the entry as <user>/<run>/<index>.<ext>.
func (c *Client) Archive(ctx context.Context, e Entry) (string, error) {
	name := ObjectName(e)

	data, contentType, err := encodeEntry(e)
	if err != nil {
		return "", err
	}

	meta := map[string]string{"model": e.Model, "kind": string(e.Kind)}
	if err := c.Upload(ctx, name, data, contentType, meta); err != nil {
		return "", err
	}

	return name, nil
}

// ObjectName returns the key an entry is stored under.
func ObjectName(e Entry) string {
	run := e.RunID
	if run == "" {
		run = "single-" + uuid.NewString()
	}

	return fmt.Sprintf("%s/%s/%04d%s", e.UserID, run, e.Index, extension(e.Kind))
}

func extension(kind config.Category) string {
	switch kind {
	case config.CategoryImage:
		return ".png"
	case config.CategoryAudio:
		return ".mp3"
	default:
		return ".json"
	}
}

func encodeEntry(e Entry) ([]byte, string, error) {
	switch e.Kind {
	case config.CategoryImage:
		return e.Data, "image/png", nil
	case config.CategoryAudio:
		return e.Data, "audio/mpeg", nil
	}

	data, err := json.MarshalIndent(textRecord{
		Model:     e.Model,
		Prompt:    e.Prompt,
		Answer:    e.Text,
		CreatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("encode text result: %w", err)
	}

	return data, "application/json", nil
}
