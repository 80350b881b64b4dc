// Package store owns the canonical in-memory summary cache and its
// mirroring into an external JSON-document store. Two document backends are
// provided: Redis (RedisJSON + RediSearch) and an embedded pebble database.
package store

import "context"

// IndexName is the search index maintained over summary documents when
// index bootstrap is enabled.
const IndexName = "outputIdx"

// Document is the synchronous contract with the JSON-document store. Keys
// address whole documents; path is a JSONPath ("$" for the root).
type Document interface {
	// GetJSON fetches the JSON at path under key. A missing key yields
	// finerr.ErrKeyNotFound.
	GetJSON(ctx context.Context, key, path string) (string, error)
	// SetJSON stores raw JSON at path under key.
	SetJSON(ctx context.Context, key, path, raw string) error
	// Del removes the document under key.
	Del(ctx context.Context, key string) error
	// Keys lists keys matching a glob-style pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// CreateIndex ensures the summary search index exists. Backends
	// without a search engine accept and ignore it.
	CreateIndex(ctx context.Context) error
	// DropIndex removes the summary search index.
	DropIndex(ctx context.Context) error
	Close() error
}
