package dispatch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cryptogyan1/tgbot/internal/config"
)

// maxResponseSize bounds a generation response body (base64 media included).
const maxResponseSize = 64 * 1024 * 1024

const audioFilename = "voice.mp3"

type imageRequest struct {
	ModelName     string `json:"model_name"`
	Prompt        string `json:"prompt"`
	Steps         int    `json:"steps"`
	CfgScale      int    `json:"cfg_scale"`
	EnableRefiner bool   `json:"enable_refiner"`
	Height        int    `json:"height"`
	Width         int    `json:"width"`
	Backend       string `json:"backend"`
}

type imageResponse struct {
	Images []struct {
		Image string `json:"image"`
	} `json:"images"`
}

type audioRequest struct {
	ModelName string  `json:"model_name"`
	Text      string  `json:"text"`
	Speed     float64 `json:"speed"`
}

type audioResponse struct {
	Audio string `json:"audio"`
}

func (c *Client) image(ctx context.Context, desc config.ModelDescriptor, credential, input string) (*Result, error) {
	reqBody := imageRequest{
		ModelName:     desc.APIModel,
		Prompt:        input,
		Steps:         30,
		CfgScale:      5,
		EnableRefiner: false,
		Height:        1024,
		Width:         1024,
		Backend:       "auto",
	}

	var resp imageResponse
	if err := c.postJSON(ctx, "/image/generation", credential, reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Images) == 0 || resp.Images[0].Image == "" {
		return nil, errors.New("no image in response")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Images[0].Image)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return &Result{Kind: config.CategoryImage, Data: data}, nil
}

func (c *Client) audio(ctx context.Context, desc config.ModelDescriptor, credential, input string) (*Result, error) {
	reqBody := audioRequest{
		ModelName: desc.APIModel,
		Text:      input,
		Speed:     1,
	}

	var resp audioResponse
	if err := c.postJSON(ctx, "/audio/generation", credential, reqBody, &resp); err != nil {
		return nil, err
	}

	if resp.Audio == "" {
		return nil, errors.New("no audio in response")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Audio)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}

	return &Result{Kind: config.CategoryAudio, Data: data, Filename: audioFilename}, nil
}

func (c *Client) postJSON(ctx context.Context, path, credential string, in, out any) error {
	jsonBody, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
