// Package audit records lifecycle and settlement events off the request path.
package audit

import (
	"context"
	"sync"
	"time"

	"tipster-service/internal/domain/audit"
	"tipster-service/internal/metrics"

	"go.uber.org/zap"
)

const insertTimeout = 5 * time.Second

// Recorder is an asynchronous audit.Logger. Append enqueues and returns at
// once; a single worker writes entries to the repository in order.
type Recorder struct {
	repo    audit.Repository
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	queue  chan audit.Entry
	done   chan struct{}
}

func NewRecorder(repo audit.Repository, buffer int, logger *zap.Logger, m *metrics.Metrics) *Recorder {
	if buffer <= 0 {
		buffer = 1
	}
	r := &Recorder{
		repo:    repo,
		logger:  logger,
		metrics: m,
		queue:   make(chan audit.Entry, buffer),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Append implements audit.Logger. Entries are dropped with a warning when the
// queue is full or the recorder is closed.
func (r *Recorder) Append(_ context.Context, e audit.Entry) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.drop(e, "recorder closed")
		return
	}

	select {
	case r.queue <- e:
	default:
		r.drop(e, "queue full")
	}
}

// History lists the recorded events of one entity.
func (r *Recorder) History(ctx context.Context, entityType audit.EntityType, entityID int64) ([]audit.Entry, error) {
	return r.repo.ListByEntity(ctx, entityType, entityID)
}

// Close stops accepting entries and waits for queued ones to be written.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	for e := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		err := r.repo.Insert(ctx, e)
		cancel()

		if err != nil {
			r.metrics.AuditDropped()
			r.logger.Error("failed to write audit entry",
				zap.String("entity_type", string(e.EntityType)),
				zap.Int64("entity_id", e.EntityID),
				zap.String("action", string(e.Action)),
				zap.Error(err),
			)
		}
	}
}

func (r *Recorder) drop(e audit.Entry, reason string) {
	r.metrics.AuditDropped()
	r.logger.Warn("audit entry dropped",
		zap.String("reason", reason),
		zap.String("entity_type", string(e.EntityType)),
		zap.Int64("entity_id", e.EntityID),
		zap.String("action", string(e.Action)),
	)
}
