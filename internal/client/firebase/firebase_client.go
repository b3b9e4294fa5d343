package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/TWRT/board-sync/internal/client"
)

type FirebaseClient struct {
	baseUrl    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewFirebaseClient(baseUrl string, timeout time.Duration, logger zerolog.Logger) *FirebaseClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FirebaseClient{
		baseUrl:    strings.TrimRight(baseUrl, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "firebase").Logger(),
	}
}

func (c *FirebaseClient) url(path string) string {
	return c.baseUrl + "/" + strings.Trim(path, "/") + ".json"
}

func (c *FirebaseClient) Load(ctx context.Context, path string) json.RawMessage {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to load data")
		return nil
	}
	return body
}

// Put replaces everything at path with doc.
func (c *FirebaseClient) Put(ctx context.Context, path string, doc any) json.RawMessage {
	body, err := c.do(ctx, http.MethodPut, path, doc)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to put data")
		return nil
	}
	return body
}

// Post appends doc under a key generated by the store.
func (c *FirebaseClient) Post(ctx context.Context, path string, doc any) *client.GeneratedKey {
	body, err := c.do(ctx, http.MethodPost, path, doc)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to post data")
		return nil
	}

	var key client.GeneratedKey
	if err := json.Unmarshal(body, &key); err != nil {
		c.logger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to parse generated key")
		return nil
	}
	return &key
}

func (c *FirebaseClient) Patch(ctx context.Context, path string, partial any) json.RawMessage {
	body, err := c.do(ctx, http.MethodPatch, path, partial)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to patch data")
		return nil
	}
	return body
}

func (c *FirebaseClient) Delete(ctx context.Context, path string) {
	if _, err := c.do(ctx, http.MethodDelete, path, nil); err != nil {
		c.logger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to delete data")
	}
}

func (c *FirebaseClient) do(ctx context.Context, method, path string, doc any) (json.RawMessage, error) {
	var reqBody io.Reader
	if doc != nil {
		body, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal %s body (firebase): %w", path, err)
		}
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request (firebase): %w", err)
	}
	if doc != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s (firebase): %w", strings.ToLower(method), path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body (firebase): %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("firebase request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var fbErr FirebaseError
		if err := json.Unmarshal(body, &fbErr); err == nil && fbErr.Error != "" {
			return nil, fmt.Errorf("Firebase error: %s (status %d)", fbErr.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("API error status: %d", resp.StatusCode)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("parse response (firebase): malformed json from %s", path)
	}
	return body, nil
}
