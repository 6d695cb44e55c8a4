package query

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func newTestStore() *Store {
	return NewStore(zap.NewNop(), NewMetrics(prometheus.NewRegistry()))
}

func countingFetcher(calls *int32, value any) Fetcher {
	return func(ctx context.Context) (any, error) {
		atomic.AddInt32(calls, 1)
		return value, nil
	}
}

func settle(t *testing.T, s *Store, key Key) Entry {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	entry, err := s.Wait(ctx, key)
	if err != nil {
		t.Fatalf("entry for %s never settled: %v", key, err)
	}
	return entry
}

func TestReadDeduplicatesConcurrentFetches(t *testing.T) {
	s := newTestStore()
	key := NewKey("reports", nil)

	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "data", nil
	}

	first := s.Read(key, fetch, time.Minute)
	second := s.Read(key, fetch, time.Minute)
	if first.Status != StatusLoading {
		t.Errorf("first read status = %s, want %s", first.Status, StatusLoading)
	}
	if second.Status != StatusLoading {
		t.Errorf("second read status = %s, want %s", second.Status, StatusLoading)
	}

	close(release)
	entry := settle(t, s, key)
	if entry.Status != StatusSuccess || entry.Data != "data" {
		t.Fatalf("settled entry = %+v, want success with data", entry)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
}

func TestReadServesFreshEntryWithoutFetch(t *testing.T) {
	s := newTestStore()
	key := NewKey("reports", nil)

	var calls int32
	fetch := countingFetcher(&calls, "v1")

	s.Read(key, fetch, time.Minute)
	settle(t, s, key)

	entry := s.Read(key, fetch, time.Minute)
	if entry.Status != StatusSuccess || entry.Data != "v1" {
		t.Fatalf("entry = %+v, want fresh success", entry)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
}

func TestReadRefetchesStaleEntryKeepingPlaceholderData(t *testing.T) {
	s := newTestStore()
	key := NewKey("reports", nil)

	current := time.Now()
	s.now = func() time.Time { return current }

	var calls int32
	fetch := countingFetcher(&calls, "v1")
	s.Read(key, fetch, time.Minute)
	settle(t, s, key)

	current = current.Add(2 * time.Minute)
	entry := s.Read(key, fetch, time.Minute)
	if entry.Status != StatusLoading {
		t.Errorf("stale read status = %s, want %s", entry.Status, StatusLoading)
	}
	if entry.Data != "v1" {
		t.Errorf("stale read data = %v, want previous data preserved", entry.Data)
	}

	settle(t, s, key)
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
}

func TestInvalidateForcesExactlyOneRefetch(t *testing.T) {
	s := newTestStore()
	key := NewKey("reports", nil)

	var calls int32
	fetch := countingFetcher(&calls, "v1")
	s.Read(key, fetch, time.Minute)
	settle(t, s, key)

	// No subscribers: invalidation marks the entry but fetches nothing.
	s.Invalidate(key)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("fetch calls after invalidate = %d, want 1", got)
	}
	if entry, ok := s.Peek(key); !ok || entry.Data != "v1" {
		t.Fatalf("invalidate cleared data: %+v", entry)
	}

	// Data is not yet stale by time, but the next read must refetch once.
	s.Read(key, fetch, time.Minute)
	s.Read(key, fetch, time.Minute)
	settle(t, s, key)
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
}

func TestInvalidateRefetchesEntriesWithSubscribers(t *testing.T) {
	s := newTestStore()
	key := NewKey("reports", nil)

	var calls int32
	fetch := countingFetcher(&calls, "v1")

	notified := make(chan Entry, 16)
	dispose := s.Subscribe(key, func(e Entry) { notified <- e })
	defer dispose()

	s.Read(key, fetch, time.Minute)
	waitForStatus(t, notified, StatusSuccess)

	s.Invalidate(key)
	waitForStatus(t, notified, StatusSuccess)
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("fetch calls = %d, want 2 (proactive refetch)", got)
	}
}

func TestFetchErrorPreservesLastKnownData(t *testing.T) {
	s := newTestStore()
	key := NewKey("reports", nil)

	var calls int32
	s.Read(key, countingFetcher(&calls, "good"), time.Minute)
	settle(t, s, key)

	s.Invalidate(key)
	failure := errors.New("backend down")
	s.Read(key, func(ctx context.Context) (any, error) { return nil, failure }, time.Minute)
	entry := settle(t, s, key)

	if entry.Status != StatusError {
		t.Errorf("status = %s, want %s", entry.Status, StatusError)
	}
	if !errors.Is(entry.Err, failure) {
		t.Errorf("err = %v, want %v", entry.Err, failure)
	}
	if entry.Data != "good" {
		t.Errorf("data = %v, want last known data preserved", entry.Data)
	}

	// An errored entry refetches on the next read.
	s.Read(key, countingFetcher(&calls, "recovered"), time.Minute)
	entry = settle(t, s, key)
	if entry.Status != StatusSuccess || entry.Data != "recovered" {
		t.Errorf("entry after recovery = %+v", entry)
	}
}

func TestIndependentKeysFetchIndependently(t *testing.T) {
	s := newTestStore()
	keyA := NewKey("reports", nil)
	keyB := NewKey("report_stats", nil)

	var callsA, callsB int32
	s.Read(keyA, countingFetcher(&callsA, "a"), time.Minute)
	s.Read(keyB, countingFetcher(&callsB, "b"), time.Minute)
	settle(t, s, keyA)
	settle(t, s, keyB)

	if atomic.LoadInt32(&callsA) != 1 || atomic.LoadInt32(&callsB) != 1 {
		t.Errorf("calls = %d/%d, want 1/1", callsA, callsB)
	}

	s.InvalidateResource("reports")
	s.Read(keyB, countingFetcher(&callsB, "b"), time.Minute)
	if atomic.LoadInt32(&callsB) != 1 {
		t.Errorf("stats refetched by reports invalidation")
	}
}

func TestSubscribeDisposerStopsNotifications(t *testing.T) {
	s := newTestStore()
	key := NewKey("reports", nil)

	notified := make(chan Entry, 16)
	dispose := s.Subscribe(key, func(e Entry) { notified <- e })

	var calls int32
	s.Read(key, countingFetcher(&calls, "v1"), time.Minute)
	waitForStatus(t, notified, StatusSuccess)

	dispose()
	s.Invalidate(key)
	s.Read(key, countingFetcher(&calls, "v2"), time.Minute)
	settle(t, s, key)

	select {
	case e := <-notified:
		t.Errorf("notified after dispose: %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitForStatus(t *testing.T, ch chan Entry, want Status) Entry {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-ch:
			if e.Status == want {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		}
	}
}
