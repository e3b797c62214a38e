// Package classify is a thin client for the external category classifier.
// The classifier itself is a black box: given text it returns category name
// suggestions, and any failure is treated as "no suggestion".
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	url        string
	httpClient *http.Client
}

func New(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type suggestRequest struct {
	Text string `json:"text"`
}

type suggestResponse struct {
	Categories []string `json:"categories"`
}

// Suggest returns category names for the text, possibly empty. With no
// classifier configured it degrades to no suggestions.
func (c *Client) Suggest(ctx context.Context, text string) ([]string, error) {
	if c.url == "" {
		return nil, nil
	}

	body, err := json.Marshal(suggestRequest{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var out suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	return out.Categories, nil
}
