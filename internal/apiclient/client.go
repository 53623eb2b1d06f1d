// Package apiclient is the typed HTTP client for the /api/v1 backend.
// Responses are decoded into versioned structs and validated before any
// store sees them; a shape mismatch is an error, never a guess.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrMalformedResponse = errors.New("malformed server response")

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api error: status %d", e.Status)
}

// TokenStore holds the current session token. The auth store writes it,
// every request reads it. Zero value is usable (no token).
type TokenStore struct {
	mu    sync.RWMutex
	token string
}

func (t *TokenStore) Get() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

func (t *TokenStore) Set(token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
}

type Client struct {
	base     string
	http     *http.Client
	tokens   *TokenStore
	log      *zap.Logger
	validate *validator.Validate
	group    singleflight.Group
}

func New(baseURL string, timeout time.Duration, tokens *TokenStore, log *zap.Logger) *Client {
	return &Client{
		base:     strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		tokens:   tokens,
		log:      log,
		validate: validator.New(),
	}
}

type errEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do issues one request and decodes the body into out (when non-nil).
// out must be a pointer to a struct carrying validate tags; decoding or
// validation failure surfaces as ErrMalformedResponse.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Get(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env errEnvelope
		if json.NewDecoder(resp.Body).Decode(&env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Warn("undecodable response", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := c.validate.Struct(out); err != nil {
		c.log.Warn("response failed validation", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// getShared collapses concurrent identical GETs into one request. fn must
// return a value safe to hand to every waiter.
func (c *Client) getShared(key string, fn func() (any, error)) (any, error) {
	v, err, _ := c.group.Do(key, fn)
	return v, err
}
