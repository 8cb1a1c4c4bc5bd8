// Package remote is the HTTP client for the upstream verification backend —
// the collaborator that owns the authoritative application record, scores
// documents, and assigns verification ids.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/skillora/instructor-os/internal/logger"
	"github.com/skillora/instructor-os/internal/models"
)

// client errors
var (
	// ErrUnauthenticated means the caller supplied no user id or token, or
	// the backend rejected the token. Surfaced to the user as a sign-in
	// call-to-action.
	ErrUnauthenticated = errors.New("sign in to continue with your application")

	ErrBackendUnavailable = errors.New("the verification service is temporarily unavailable, please try again")
)

// SaveResult is the backend's acknowledgement of a draft save or submission.
type SaveResult struct {
	VerificationID string                   `json:"verification_id"`
	Version        int                      `json:"version"` // echoed logical version
	Status         models.ApplicationStatus `json:"status"`
}

// Client is the remote application API surface the store depends on.
type Client interface {
	Load(ctx context.Context, userID, token string) (*models.ApplicationState, error)
	SaveDraft(ctx context.Context, userID, token string, state *models.ApplicationState) (*SaveResult, error)
	Submit(ctx context.Context, userID, token string, state *models.ApplicationState) (*SaveResult, error)
	Status(ctx context.Context, userID, token string) (models.ApplicationStatus, error)
}

// HTTPClient talks JSON over HTTP with a bearer token.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	limiter *RateLimiter
	log     *logger.Logger
}

// Config holds the HTTP client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// RPS and Burst tune the request limiter; zero values fall back to the
	// default limiter.
	RPS   float64
	Burst int
}

// NewHTTPClient creates a client for the verification backend.
func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limiter := DefaultRateLimiter()
	if cfg.RPS > 0 && cfg.Burst > 0 {
		limiter = NewRateLimiter(cfg.RPS, cfg.Burst)
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		log:     logger.Get(),
	}
}

// Load fetches the server copy of a user's application. Returns nil when the
// backend has no record yet.
func (c *HTTPClient) Load(ctx context.Context, userID, token string) (*models.ApplicationState, error) {
	var state models.ApplicationState
	found, err := c.do(ctx, http.MethodGet, "/v1/applications/"+userID, userID, token, nil, &state)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &state, nil
}

// SaveDraft pushes the full serialized application state as a draft.
func (c *HTTPClient) SaveDraft(ctx context.Context, userID, token string, state *models.ApplicationState) (*SaveResult, error) {
	var res SaveResult
	if _, err := c.do(ctx, http.MethodPut, "/v1/applications/"+userID+"/draft", userID, token, state, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Submit sends the application for review.
func (c *HTTPClient) Submit(ctx context.Context, userID, token string, state *models.ApplicationState) (*SaveResult, error) {
	var res SaveResult
	if _, err := c.do(ctx, http.MethodPost, "/v1/applications/"+userID+"/submit", userID, token, state, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Status fetches the server-tracked application status read-model.
func (c *HTTPClient) Status(ctx context.Context, userID, token string) (models.ApplicationStatus, error) {
	var payload struct {
		Status models.ApplicationStatus `json:"status"`
	}
	found, err := c.do(ctx, http.MethodGet, "/v1/applications/"+userID+"/status", userID, token, nil, &payload)
	if err != nil {
		return "", err
	}
	if !found {
		return models.ApplicationStatusDraft, nil
	}
	return payload.Status, nil
}

// do runs one request. Returns found=false for a 404; all other non-2xx
// statuses are converted to readable errors at this boundary.
func (c *HTTPClient) do(ctx context.Context, method, path, userID, token string, body, out any) (bool, error) {
	if userID == "" || token == "" {
		return false, ErrUnauthenticated
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("serialize application: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Str("path", path).Err(err).Msg("verification backend unreachable")
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return false, ErrUnauthenticated
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			c.limiter.SetRetryAfter(secs)
		}
		return false, fmt.Errorf("%w: rate limited", ErrBackendUnavailable)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("%w: %s (%d)", ErrBackendUnavailable, bytes.TrimSpace(msg), resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decode response: %w", err)
		}
	}

	return true, nil
}
