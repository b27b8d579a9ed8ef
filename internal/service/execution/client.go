package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"codeshare-backend/internal/dto"
)

const maxResponseBytes = 1 << 20

var ErrMalformedResponse = errors.New("execution: malformed response")

// StatusError is returned when the execution service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("execution: service returned %d: %s", e.StatusCode, e.Body)
}

// PistonClient talks to a Piston-compatible /execute endpoint.
type PistonClient struct {
	url        string
	httpClient *http.Client
}

func NewPistonClient(url string, httpClient *http.Client) *PistonClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &PistonClient{url: url, httpClient: httpClient}
}

func (c *PistonClient) Execute(ctx context.Context, req dto.ExecuteRequest) (dto.ExecuteResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return dto.ExecuteResponse{}, fmt.Errorf("execution: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return dto.ExecuteResponse{}, fmt.Errorf("execution: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return dto.ExecuteResponse{}, fmt.Errorf("execution: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return dto.ExecuteResponse{}, fmt.Errorf("execution: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return dto.ExecuteResponse{}, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var out dto.ExecuteResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return dto.ExecuteResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, nil
}
