package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/finquota/finquota/pkg/areas"
	"github.com/finquota/finquota/pkg/finerr"
	"github.com/finquota/finquota/pkg/summary"
)

// Store is the canonical in-memory map of summaries, mirrored into a
// Document backend on every mutation. A single readers/writer lock guards
// the whole map; the dispatcher being single-threaded means the lock only
// has to arbitrate against read probes.
type Store struct {
	mu    sync.RWMutex
	cache map[string]*summary.Summary

	doc   Document
	areas *areas.Provider
	log   *zap.SugaredLogger
}

func New(doc Document, provider *areas.Provider, log *zap.SugaredLogger) *Store {
	return &Store{
		cache: make(map[string]*summary.Summary),
		doc:   doc,
		areas: provider,
		log:   log,
	}
}

// Init loads every existing summary document into the cache. Individual
// documents that are missing or malformed are skipped with a warning; a
// failure to list keys is fatal.
func (s *Store) Init(ctx context.Context) error {
	keys, err := s.doc.Keys(ctx, summary.KeyPrefix+"*")
	if err != nil {
		return fmt.Errorf("%w: %v", finerr.ErrLoadFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*summary.Summary, len(keys))
	loaded := 0
	for _, key := range keys {
		raw, err := s.doc.GetJSON(ctx, key, "$")
		if err != nil {
			s.log.Warnw("summary_load_skipped", "key", key, "err", err)
			continue
		}
		sum, err := unmarshalSummary(raw)
		if err != nil {
			s.log.Warnw("summary_parse_skipped", "key", key, "err", err)
			continue
		}
		s.cache[key] = sum
		loaded++
	}
	s.log.Infow("summaries_loaded", "keys", len(keys), "loaded", loaded)
	return nil
}

// Mutate runs fn with exclusive access to the summary under key, creating
// an empty Summary on first reference. If fn returns an error the summary
// is left exactly as fn left it, so fn must stage its work so a failure makes
// no changes.
func (s *Store) Mutate(key string, fn func(*summary.Summary) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.cache[key]
	if !ok {
		sum = &summary.Summary{}
		s.cache[key] = sum
	}
	return fn(sum)
}

// Get returns a copy of the summary under key.
func (s *Store) Get(key string) (*summary.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	return sum.Clone(), true
}

// Len returns the number of cached summaries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Set overwrites the summary under key and publishes it.
func (s *Store) Set(ctx context.Context, key string, sum *summary.Summary) error {
	s.mu.Lock()
	s.cache[key] = sum.Clone()
	s.mu.Unlock()
	return s.Sync(ctx, key)
}

// Sync publishes the cached summary under key to the document store. The
// cache is not touched: on publish failure the in-memory state stands and
// the next mutation republishes it.
func (s *Store) Sync(ctx context.Context, key string) error {
	s.mu.RLock()
	sum, ok := s.cache[key]
	var raw string
	var err error
	if ok {
		raw, err = marshalSummary(sum)
	}
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: sync of unknown key %s", finerr.ErrUnexpected, key)
	}
	if err != nil {
		return err
	}
	if err := s.doc.SetJSON(ctx, key, "$", raw); err != nil {
		return err
	}
	s.log.Debugw("summary_synced", "key", key)
	return nil
}

// UpdateCompanyRollup recomputes "summary:ALL:<stockID>" as the
// componentwise sum of the derived outputs over every configured back-office
// id present in the cache, then caches and publishes it. The sum is taken
// under the writer lock so it observes a consistent snapshot.
func (s *Store) UpdateCompanyRollup(ctx context.Context, stockID string) error {
	rollup := &summary.Summary{
		StockID:        stockID,
		AreaCenter:     summary.AllAreas,
		BelongBranches: s.areas.AllBranches(),
	}

	s.mu.Lock()
	var sumErr error
	for _, officeID := range s.areas.BackOfficeIDs() {
		if area, ok := s.cache[summary.Key(officeID, stockID)]; ok {
			if err := rollup.AddDerived(area); err != nil {
				sumErr = err
				break
			}
		}
	}
	if sumErr == nil {
		s.cache[summary.AllKey(stockID)] = rollup
	}
	s.mu.Unlock()

	if sumErr != nil {
		return sumErr
	}
	return s.Sync(ctx, summary.AllKey(stockID))
}

// Remove deletes the summary from both the cache and the document store.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.doc.Del(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	return nil
}
