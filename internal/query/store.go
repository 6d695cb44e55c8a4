package query

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Entry is the observable state of one cached query. Data survives both
// refetches and failed fetches, so consumers can keep showing the last good
// value while Status tells them a refresh is underway or failed.
type Entry struct {
	Data      any
	Status    Status
	FetchedAt time.Time
	Err       error
}

// Fetcher loads the value for a key. The store invokes it on its own
// detached context: an in-flight fill is shared between readers, so one
// reader's cancellation must not tear it down. Superseded results are
// dropped, not cancelled.
type Fetcher func(ctx context.Context) (any, error)

// Store is the keyed query cache. It owns every cache entry; all mutation of
// entries funnels through Read, Invalidate and fetch completion, each
// serialized by the store mutex. The store itself performs no I/O.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*cacheEntry
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

type cacheEntry struct {
	Entry
	invalid   bool
	inflight  bool
	seq       uint64
	fetcher   Fetcher
	staleTime time.Duration
	subs      map[int]func(Entry)
	nextSubID int
}

func NewStore(log *zap.Logger, metrics *Metrics) *Store {
	return &Store{
		entries: make(map[Key]*cacheEntry),
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
}

// Read returns the current entry for key, starting a fetch when the entry is
// missing, errored, invalidated, or older than staleTime. Concurrent reads
// for the same key attach to the one in-flight fetch. The previous data is
// returned immediately; StatusLoading signals the refetch in progress.
func (s *Store) Read(key Key, fetch Fetcher, staleTime time.Duration) Entry {
	s.mu.Lock()
	e := s.ensureLocked(key)
	e.fetcher = fetch
	e.staleTime = staleTime

	started := false
	switch {
	case e.inflight:
		// Attach to the fetch already underway.
	case e.Status == StatusIdle:
		s.metrics.Misses.Inc()
		s.startFetchLocked(key, e)
		started = true
	case e.Status == StatusError || e.invalid || s.now().Sub(e.FetchedAt) > staleTime:
		s.metrics.Refetches.Inc()
		s.startFetchLocked(key, e)
		started = true
	default:
		s.metrics.Hits.Inc()
	}

	snap := e.Entry
	var subs []func(Entry)
	if started {
		subs = subscriberList(e)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}

// Invalidate marks the given keys stale without clearing their data. Entries
// with live subscribers are refetched immediately; the rest refetch on their
// next Read.
func (s *Store) Invalidate(keys ...Key) {
	s.InvalidateMatching(func(k Key) bool {
		for _, key := range keys {
			if k == key {
				return true
			}
		}
		return false
	})
}

// InvalidateResource invalidates every key of one resource, whatever its
// parameters.
func (s *Store) InvalidateResource(resource string) {
	s.InvalidateMatching(func(k Key) bool { return k.Resource == resource })
}

func (s *Store) InvalidateMatching(match func(Key) bool) {
	type notice struct {
		subs []func(Entry)
		snap Entry
	}
	var notices []notice

	s.mu.Lock()
	for key, e := range s.entries {
		if !match(key) {
			continue
		}
		e.invalid = true
		if len(e.subs) > 0 && e.fetcher != nil && !e.inflight {
			s.metrics.Refetches.Inc()
			s.startFetchLocked(key, e)
			notices = append(notices, notice{subs: subscriberList(e), snap: e.Entry})
		}
	}
	s.mu.Unlock()

	for _, n := range notices {
		for _, fn := range n.subs {
			fn(n.snap)
		}
	}
}

// Subscribe registers fn for every state transition of key and returns a
// disposer. When the last subscriber for a key disposes, the entry is
// retained but no longer refetched proactively on invalidation.
func (s *Store) Subscribe(key Key, fn func(Entry)) func() {
	s.mu.Lock()
	e := s.ensureLocked(key)
	e.nextSubID++
	id := e.nextSubID
	e.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if e, ok := s.entries[key]; ok {
				delete(e.subs, id)
			}
			s.mu.Unlock()
		})
	}
}

// Peek returns the entry for key without triggering a fetch.
func (s *Store) Peek(key Key) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return e.Entry, true
}

// Wait blocks until the entry for key settles into success or error, or ctx
// expires. Intended for one-shot consumers that have just called Read.
func (s *Store) Wait(ctx context.Context, key Key) (Entry, error) {
	settled := make(chan Entry, 1)
	dispose := s.Subscribe(key, func(e Entry) {
		if e.Status == StatusSuccess || e.Status == StatusError {
			select {
			case settled <- e:
			default:
			}
		}
	})
	defer dispose()

	s.mu.Lock()
	if e, ok := s.entries[key]; ok && !e.inflight && (e.Status == StatusSuccess || e.Status == StatusError) {
		snap := e.Entry
		s.mu.Unlock()
		return snap, nil
	}
	s.mu.Unlock()

	select {
	case e := <-settled:
		return e, nil
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	}
}

func (s *Store) ensureLocked(key Key) *cacheEntry {
	e, ok := s.entries[key]
	if !ok {
		e = &cacheEntry{
			Entry: Entry{Status: StatusIdle},
			subs:  make(map[int]func(Entry)),
		}
		s.entries[key] = e
		s.metrics.Entries.Set(float64(len(s.entries)))
	}
	return e
}

func (s *Store) startFetchLocked(key Key, e *cacheEntry) {
	e.inflight = true
	e.invalid = false
	e.Status = StatusLoading
	e.seq++
	go s.runFetch(key, e.seq, e.fetcher)
}

func (s *Store) runFetch(key Key, seq uint64, fetch Fetcher) {
	data, err := fetch(context.Background())

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || e.seq != seq {
		// Superseded: a newer fetch owns this entry now.
		s.mu.Unlock()
		return
	}
	e.inflight = false
	if err != nil {
		e.Status = StatusError
		e.Err = err
		s.metrics.FetchErrors.Inc()
		s.log.Warn("query fetch failed", zap.String("key", key.String()), zap.Error(err))
	} else {
		e.Status = StatusSuccess
		e.Data = data
		e.Err = nil
		e.FetchedAt = s.now()
	}
	snap := e.Entry
	subs := subscriberList(e)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func subscriberList(e *cacheEntry) []func(Entry) {
	if len(e.subs) == 0 {
		return nil
	}
	out := make([]func(Entry), 0, len(e.subs))
	for _, fn := range e.subs {
		out = append(out, fn)
	}
	return out
}
