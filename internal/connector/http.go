// Package connector implements job-board source adapters.
package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"jobradar/internal/model"
)

// Sentinel errors the scheduler can distinguish when recording failures.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSourceTimeout     = errors.New("source timeout")
)

const (
	defaultPageSize = 50
	defaultMaxPages = 3 // max 150 results per (keyword × region) pair
	httpTimeout     = 15 * time.Second
)

// HTTPConnector searches a JSON job-board API. If AppID or AppKey is empty,
// Search returns (nil, nil) gracefully so a run without credentials just
// logs and moves on.
type HTTPConnector struct {
	BaseURL string
	AppID   string
	AppKey  string
	Name    string
	client  *http.Client
}

// NewHTTPConnector constructs a connector with a shared HTTP client.
func NewHTTPConnector(baseURL, appID, appKey, name string) *HTTPConnector {
	return &HTTPConnector{
		BaseURL: baseURL,
		AppID:   appID,
		AppKey:  appKey,
		Name:    name,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// searchResponse mirrors the top-level API JSON response.
type searchResponse struct {
	Results []searchResult `json:"results"`
	Count   int            `json:"count"`
}

type searchResult struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Company     displayNamed `json:"company"`
	Location    displayNamed `json:"location"`
	RedirectURL string       `json:"redirect_url"`
	Created     string       `json:"created"`
}

type displayNamed struct {
	DisplayName string `json:"display_name"`
}

// Search retrieves offers for a keyword and region, iterating through pages
// until no more results or the page cap is reached. Returns nil without
// error when credentials are missing.
func (c *HTTPConnector) Search(ctx context.Context, keyword, region string, _ model.FilterSpec) ([]model.Candidate, error) {
	if c.AppID == "" || c.AppKey == "" {
		log.Printf("[connector] %s credentials not set — skipping search", c.Name)
		return nil, nil
	}

	var candidates []model.Candidate

	for page := 1; page <= defaultMaxPages; page++ {
		batch, err := c.searchPage(ctx, keyword, region, page)
		if err != nil {
			return candidates, fmt.Errorf("page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break // No more results
		}
		candidates = append(candidates, batch...)
		if len(batch) < defaultPageSize {
			break // Last page
		}
	}

	return candidates, nil
}

func (c *HTTPConnector) searchPage(ctx context.Context, keyword, region string, page int) ([]model.Candidate, error) {
	endpoint := fmt.Sprintf("%s/search/%d", c.BaseURL, page)

	params := url.Values{}
	params.Set("app_id", c.AppID)
	params.Set("app_key", c.AppKey)
	params.Set("results_per_page", strconv.Itoa(defaultPageSize))
	params.Set("what", keyword)
	params.Set("where", region)
	params.Set("sort_by", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrSourceTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrSourceUnavailable, resp.StatusCode, string(body))
	}

	var apiResp searchResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	now := time.Now()
	candidates := make([]model.Candidate, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		link := r.RedirectURL
		if link == "" {
			link = fmt.Sprintf("%s:%s", c.Name, r.ID)
		}
		discovered := now
		if t, err := time.Parse(time.RFC3339, r.Created); err == nil {
			discovered = t
		}
		candidates = append(candidates, model.Candidate{
			Title:        r.Title,
			Link:         link,
			Source:       c.Name,
			Company:      r.Company.DisplayName,
			Location:     r.Location.DisplayName,
			Description:  r.Description,
			DiscoveredAt: discovered,
		})
	}

	return candidates, nil
}
