package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matchid-dev/appgate/pkg/database"
	"github.com/matchid-dev/appgate/pkg/logging"
	"github.com/matchid-dev/appgate/pkg/namespace"
)

type fakeStore struct {
	mu       sync.Mutex
	ensured  []namespace.Namespace
	recorded []database.RequestRecord
}

func (f *fakeStore) EnsureNamespace(_ context.Context, ns namespace.Namespace) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append(f.ensured, ns)
	return nil
}

func (f *fakeStore) RecordRequest(_ context.Context, rec database.RequestRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, rec)
	return nil
}

func (f *fakeStore) snapshot() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ensured), len(f.recorded)
}

func testLogger(t *testing.T) *logging.ColoredLogger {
	t.Helper()
	logger, err := logging.NewDefaultLogger(logging.ComponentTracker)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return logger
}

func TestTrackerDrainsOnClose(t *testing.T) {
	store := &fakeStore{}
	tr := New(store, testLogger(t), 16)

	ns := namespace.Derive("u7unpdh6ehtvrt4b")
	for i := 0; i < 5; i++ {
		tr.Track(database.RequestRecord{Namespace: ns, Method: "GET", Path: "/v1/whoami", StatusCode: 200})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tr.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	ensured, recorded := store.snapshot()
	if recorded != 5 {
		t.Errorf("recorded = %d, want 5", recorded)
	}
	// Namespace registration is deduplicated per process.
	if ensured != 1 {
		t.Errorf("ensured = %d, want 1", ensured)
	}
}

func TestTrackerEnsuresEachNamespaceOnce(t *testing.T) {
	store := &fakeStore{}
	tr := New(store, testLogger(t), 16)

	a := namespace.Derive("u7unpdh6ehtvrt4b")
	b := namespace.Derive("h31tx1inchlk6xku")
	for _, ns := range []namespace.Namespace{a, b, a, b, a} {
		tr.Track(database.RequestRecord{Namespace: ns, Method: "GET", Path: "/", StatusCode: 200})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tr.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	ensured, recorded := store.snapshot()
	if ensured != 2 {
		t.Errorf("ensured = %d, want 2", ensured)
	}
	if recorded != 5 {
		t.Errorf("recorded = %d, want 5", recorded)
	}
}

func TestTrackerTrackAfterClose(t *testing.T) {
	store := &fakeStore{}
	tr := New(store, testLogger(t), 16)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tr.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Requests on hijacked connections may outlive the shutdown sequence;
	// late records are dropped, never a panic.
	ns := namespace.Derive("u7unpdh6ehtvrt4b")
	tr.Track(database.RequestRecord{Namespace: ns, Method: "GET", Path: "/v1/whoami", StatusCode: 200})

	if got := tr.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
	if _, recorded := store.snapshot(); recorded != 0 {
		t.Errorf("recorded = %d, want 0", recorded)
	}

	// Close is idempotent.
	if err := tr.Close(ctx); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

type blockingStore struct {
	fakeStore
	release chan struct{}
}

func (b *blockingStore) RecordRequest(ctx context.Context, rec database.RequestRecord) error {
	<-b.release
	return b.fakeStore.RecordRequest(ctx, rec)
}

func TestTrackerDropsWhenBufferFull(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	tr := New(store, testLogger(t), 2)

	ns := namespace.Derive("u7unpdh6ehtvrt4b")
	// The worker parks on the first record; two more fill the buffer, the
	// rest must be dropped without blocking.
	deadline := time.After(2 * time.Second)
	for i := 0; i < 10; i++ {
		done := make(chan struct{})
		go func() {
			tr.Track(database.RequestRecord{Namespace: ns, Method: "GET", Path: "/", StatusCode: 200})
			close(done)
		}()
		select {
		case <-done:
		case <-deadline:
			t.Fatal("Track blocked")
		}
	}

	if tr.Dropped() == 0 {
		t.Error("expected dropped records")
	}

	close(store.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tr.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}
