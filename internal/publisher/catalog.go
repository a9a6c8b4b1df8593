package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const catalogTimeout = 30 * time.Second

// HTTPCatalogClient talks to the catalog service's REST API with bearer
// token auth.
type HTTPCatalogClient struct {
	BaseURL string
	Token   string
	client  *http.Client
}

// NewHTTPCatalogClient constructs a client with a bounded timeout.
func NewHTTPCatalogClient(baseURL, token string) *HTTPCatalogClient {
	return &HTTPCatalogClient{
		BaseURL: baseURL,
		Token:   token,
		client:  &http.Client{Timeout: catalogTimeout},
	}
}

// Create posts a new posting and returns the catalog-assigned ID.
func (c *HTTPCatalogClient) Create(ctx context.Context, rec PostingRecord) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal posting: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/api/jobs", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("catalog create: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("catalog returned %d: %s", resp.StatusCode, string(body))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("json unmarshal: %w", err)
	}
	return created.ID, nil
}

// Approve flips a created posting to approved in the catalog.
func (c *HTTPCatalogClient) Approve(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/jobs/%s/approve", c.BaseURL, id), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog approve: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("catalog returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
