package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ImageTransformer is the image-transform boundary: source URL in, resized
// and optimized asset URL out. Transform failures are not retried.
type ImageTransformer interface {
	Transform(ctx context.Context, sourceURL string, width, height int) (string, error)
}

// HTTPImageTransformer talks to the external image service over JSON/HTTP.
type HTTPImageTransformer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPImageTransformer(baseURL string, timeout time.Duration) *HTTPImageTransformer {
	return &HTTPImageTransformer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (t *HTTPImageTransformer) Transform(ctx context.Context, sourceURL string, width, height int) (string, error) {
	body := map[string]any{
		"source_url": sourceURL,
		"width":      width,
		"height":     height,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL+"/v1/transform", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("image service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if response.URL == "" {
		return "", fmt.Errorf("image service returned an empty URL")
	}

	return response.URL, nil
}
