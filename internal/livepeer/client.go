// internal/livepeer/client.go
package livepeer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a thin wrapper around the Livepeer Studio REST API. Only the
// endpoints the platform needs are implemented.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type Stream struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StreamKey  string `json:"streamKey"`
	PlaybackID string `json:"playbackId"`
	Record     bool   `json:"record"`
}

type Asset struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PlaybackID string `json:"playbackId"`
}

type Upload struct {
	URL   string `json:"url"`
	Asset Asset  `json:"asset"`
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether an API key is present. Without one, stream and
// upload provisioning is unavailable.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) CreateStream(ctx context.Context, name string, record bool) (*Stream, error) {
	body := map[string]interface{}{
		"name":   name,
		"record": record,
	}

	var stream Stream
	if err := c.do(ctx, http.MethodPost, "/stream", body, &stream); err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &stream, nil
}

func (c *Client) DeleteStream(ctx context.Context, streamID string) error {
	if err := c.do(ctx, http.MethodDelete, "/stream/"+streamID, nil, nil); err != nil {
		return fmt.Errorf("failed to delete stream: %w", err)
	}
	return nil
}

// RequestUpload reserves a direct-upload URL for a new video asset. The
// caller uploads the file to the returned URL; Livepeer processes it into a
// playable asset afterwards.
func (c *Client) RequestUpload(ctx context.Context, name string) (*Upload, error) {
	body := map[string]interface{}{
		"name": name,
	}

	var upload Upload
	if err := c.do(ctx, http.MethodPost, "/asset/request-upload", body, &upload); err != nil {
		return nil, fmt.Errorf("failed to request upload: %w", err)
	}

	return &upload, nil
}

func (c *Client) DeleteAsset(ctx context.Context, assetID string) error {
	if err := c.do(ctx, http.MethodDelete, "/asset/"+assetID, nil, nil); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("livepeer API returned %d: %s", resp.StatusCode, string(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
