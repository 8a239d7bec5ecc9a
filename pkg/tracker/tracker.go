// Package tracker persists per-tenant request activity off the hot path.
// Handlers hand finished requests to a buffered channel; a single worker
// goroutine writes them to the store so a slow backend never stalls
// request serving.
package tracker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/matchid-dev/appgate/pkg/database"
	"github.com/matchid-dev/appgate/pkg/logging"
	"github.com/matchid-dev/appgate/pkg/namespace"
)

// Store is the subset of the metadata store the tracker writes to.
type Store interface {
	EnsureNamespace(ctx context.Context, ns namespace.Namespace) error
	RecordRequest(ctx context.Context, rec database.RequestRecord) error
}

// Tracker is the asynchronous request recorder.
type Tracker struct {
	store   Store
	logger  *logging.ColoredLogger
	records chan database.RequestRecord
	done    chan struct{}
	dropped atomic.Int64

	// mu guards closed; Track holds it for reads so no send can race the
	// channel close. Hijacked connections can finish requests after the
	// server shuts the tracker down.
	mu     sync.RWMutex
	closed bool
}

// New starts a tracker draining into store. bufferSize bounds how many
// records may be queued before Track starts dropping.
func New(store Store, logger *logging.ColoredLogger, bufferSize int) *Tracker {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	t := &Tracker{
		store:   store,
		logger:  logger,
		records: make(chan database.RequestRecord, bufferSize),
		done:    make(chan struct{}),
	}
	go t.run()
	return t
}

// Track queues one finished request for persistence. Never blocks: when the
// buffer is full, or the tracker is already closed, the record is dropped
// and counted.
func (t *Tracker) Track(rec database.RequestRecord) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.dropped.Add(1)
		return
	}
	select {
	case t.records <- rec:
	default:
		n := t.dropped.Add(1)
		if n%100 == 1 {
			t.logger.ComponentWarn(logging.ComponentTracker, "request log buffer full, dropping records",
				zap.Int64("dropped_total", n))
		}
	}
}

// Dropped returns how many records were discarded due to a full buffer.
func (t *Tracker) Dropped() int64 {
	return t.dropped.Load()
}

// Close stops accepting records and drains the buffer. Safe to call more
// than once; Track after Close counts the record as dropped. Returns
// ctx.Err() when the deadline expires before the drain completes.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.records)
	}
	t.mu.Unlock()

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) run() {
	defer close(t.done)

	// Namespaces already registered with the store this process lifetime.
	// Only the worker goroutine touches it.
	ensured := make(map[namespace.Namespace]struct{})

	for rec := range t.records {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if _, ok := ensured[rec.Namespace]; !ok {
			if err := t.store.EnsureNamespace(ctx, rec.Namespace); err != nil {
				t.logger.ComponentWarn(logging.ComponentTracker, "failed to register namespace",
					zap.String("namespace", rec.Namespace.String()),
					zap.Error(err))
			} else {
				ensured[rec.Namespace] = struct{}{}
			}
		}

		if err := t.store.RecordRequest(ctx, rec); err != nil {
			t.logger.ComponentWarn(logging.ComponentTracker, "failed to persist request record",
				zap.String("namespace", rec.Namespace.String()),
				zap.String("path", rec.Path),
				zap.Error(err))
		}
		cancel()
	}
}
