package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

const resourcePath = "/api/resource"

// HTTPClient reads resources from the directory service.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewHTTPClient creates a directory client rooted at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "directory_http").Logger(),
	}
}

// GetResource fetches {resource?: {title, url, summary}}. A missing resource
// object, or a 404, means not found.
func (c *HTTPClient) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	u := c.baseURL + resourcePath + "?" + url.Values{"id": {id}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrResourceNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("directory http %d: %s", resp.StatusCode, string(body))
	}

	var env model.ResourceEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode directory response: %w", err)
	}
	if env.Resource == nil {
		c.log.Debug().Str("resource_id", id).Msg("Resource not found")
		return nil, ErrResourceNotFound
	}

	return &model.Resource{
		ID:      id,
		Title:   env.Resource.Title,
		URL:     env.Resource.URL,
		Summary: env.Resource.Summary,
	}, nil
}
