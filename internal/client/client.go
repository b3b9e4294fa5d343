package client

import (
	"context"
	"encoding/json"
)

// GeneratedKey is the store's reply to a POST.
type GeneratedKey struct {
	Name string `json:"name"`
}

// DocumentStore reads and writes whole JSON documents by path. Failures are
// reported as nil results only; the cause goes to the log.
type DocumentStore interface {
	Load(ctx context.Context, path string) json.RawMessage
	Put(ctx context.Context, path string, doc any) json.RawMessage
	Post(ctx context.Context, path string, doc any) *GeneratedKey
	Patch(ctx context.Context, path string, partial any) json.RawMessage
	Delete(ctx context.Context, path string)
}

type WebhookPoster interface {
	Post(ctx context.Context, url string, payload any) error
	Ping(ctx context.Context, url string) error
}
