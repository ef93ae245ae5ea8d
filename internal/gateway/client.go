package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

const (
	taskPath = "/api/resource-ai"

	maxResponseBytes = 4 << 20
	maxErrorBody     = 512
)

// ErrUnrecognizedResult is returned when the response carries none of the
// known result keys.
var ErrUnrecognizedResult = errors.New("gateway response has no recognized result")

// ErrResponseTooLarge is returned when the body exceeds the client limit.
var ErrResponseTooLarge = errors.New("gateway response too large")

// HTTPError is a non-2xx gateway response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gateway http %d: %s", e.StatusCode, e.Body)
}

// Client executes AI tasks against the gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxBody    int64
	log        zerolog.Logger
}

// NewClient creates a gateway client. A zero timeout means no client-side
// deadline; callers bound the call with their context instead.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxBody:    maxResponseBytes,
		log:        log.With().Str("component", "gateway").Logger(),
	}
}

// Execute sends req and decodes the tagged result. No retries.
func (c *Client) Execute(ctx context.Context, req model.TaskRequest) (model.TaskResult, error) {
	if !req.Task.Valid() {
		return model.TaskResult{}, fmt.Errorf("invalid task %q", req.Task)
	}
	if req.Task != model.TaskQA {
		req.Question = ""
	}

	start := time.Now()
	raw, err := c.doOnce(ctx, http.MethodPost, taskPath, req)
	if err != nil {
		c.log.Warn().Err(err).
			Str("task", string(req.Task)).
			Str("resource_id", req.ResourceID).
			Msg("Gateway request failed")
		return model.TaskResult{}, err
	}

	res, err := decodeResult(req.Task, raw)
	if err != nil {
		return model.TaskResult{}, err
	}

	c.log.Debug().
		Str("task", string(req.Task)).
		Str("kind", string(res.Kind)).
		Dur("took", time.Since(start)).
		Msg("Gateway task completed")
	return res, nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > c.maxBody {
		return nil, fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, c.maxBody)
	}
	return raw, nil
}
