package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hearthside/loom/pkg/record"
)

// Batch is one user's snapshot of unprocessed memory records awaiting
// aggregation.
type Batch struct {
	UserID   string
	Memories []*record.MemoryRecord
}

// AggregationWorker runs aggregation over queued per-user batches in the
// background with bounded concurrency. Per-user serialization inside the
// engine means two batches for the same user still run one at a time.
type AggregationWorker struct {
	engine *Engine

	mu      sync.Mutex
	pending []Batch

	done  atomic.Int64
	total atomic.Int64
}

// NewAggregationWorker creates a worker over the given engine.
func NewAggregationWorker(engine *Engine) *AggregationWorker {
	return &AggregationWorker{engine: engine}
}

// Enqueue adds a batch to process on the next Run.
func (w *AggregationWorker) Enqueue(batch Batch) {
	if batch.UserID == "" || len(batch.Memories) == 0 {
		return
	}
	w.mu.Lock()
	w.pending = append(w.pending, batch)
	w.mu.Unlock()
}

// Progress returns the number of batches processed and total queued for the
// current run.
func (w *AggregationWorker) Progress() (done, total int) {
	return int(w.done.Load()), int(w.total.Load())
}

// Run drains the queued batches, aggregating each with bounded concurrency.
// It blocks until every batch is processed or the context is cancelled.
func (w *AggregationWorker) Run(ctx context.Context) {
	w.mu.Lock()
	pending := w.pending
	w.pending = nil
	w.mu.Unlock()

	w.total.Store(int64(len(pending)))
	w.done.Store(0)

	if len(pending) == 0 {
		return
	}

	// Two workers keeps the text-generation provider under rate limits.
	const maxConcurrency = 2
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for _, batch := range pending {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(b Batch) {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			if _, err := w.engine.AutoCreateStories(ctx, b.UserID, b.Memories); err != nil {
				w.engine.logger.Warn("aggregation worker: batch failed",
					"user_id", b.UserID,
					"error", err,
				)
			}
			w.done.Add(1)
		}(batch)
	}

	wg.Wait()
}
