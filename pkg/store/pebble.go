package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cockroachdb/pebble"

	"github.com/finquota/finquota/pkg/finerr"
)

// PebbleStore is the embedded Document backend: summary JSON documents
// stored under their keys in a local pebble database. There is no search
// engine, so the index calls are accepted no-ops. Only root-path access is
// supported, which is all the data plane uses.
type PebbleStore struct {
	db *pebble.DB
}

func OpenPebble(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("%w: pebble open %s: %v", finerr.ErrConnectionFailed, path, err)
	}
	return &PebbleStore{db: db}, nil
}

func (p *PebbleStore) GetJSON(_ context.Context, key, path string) (string, error) {
	if err := rootOnly(path); err != nil {
		return "", err
	}
	val, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", finerr.ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %v", finerr.ErrCommandFailed, key, err)
	}
	defer closer.Close()
	return string(append([]byte(nil), val...)), nil
}

func (p *PebbleStore) SetJSON(_ context.Context, key, path, raw string) error {
	if err := rootOnly(path); err != nil {
		return err
	}
	if err := p.db.Set([]byte(key), []byte(raw), pebble.Sync); err != nil {
		return fmt.Errorf("%w: set %s: %v", finerr.ErrCommandFailed, key, err)
	}
	return nil
}

func (p *PebbleStore) Del(_ context.Context, key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("%w: delete %s: %v", finerr.ErrCommandFailed, key, err)
	}
	return nil
}

// Keys supports the one pattern shape the data plane uses: a literal
// prefix followed by '*'.
func (p *PebbleStore) Keys(_ context.Context, pattern string) ([]string, error) {
	prefix, ok := strings.CutSuffix(pattern, "*")
	if !ok || strings.ContainsAny(prefix, "*?[") {
		return nil, fmt.Errorf("%w: unsupported key pattern %q", finerr.ErrCommandFailed, pattern)
	}

	upper := append([]byte(prefix), 0xff)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: upper,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: iterator: %v", finerr.ErrCommandFailed, err)
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterate %q: %v", finerr.ErrCommandFailed, pattern, err)
	}
	return keys, nil
}

func (p *PebbleStore) CreateIndex(context.Context) error { return nil }
func (p *PebbleStore) DropIndex(context.Context) error   { return nil }

func (p *PebbleStore) Close() error { return p.db.Close() }

func rootOnly(path string) error {
	if path != "$" {
		return fmt.Errorf("%w: unsupported json path %q", finerr.ErrCommandFailed, path)
	}
	return nil
}

var _ Document = (*PebbleStore)(nil)
