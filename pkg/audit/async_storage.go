package audit

import (
	"context"
	"sync"
	"time"
)

// AsyncOptions configures the batching and buffering behavior.
type AsyncOptions struct {
	BufferSize     int           // Max events queued before falling back to sync writes
	BatchSize      int           // Target events per batch
	BatchTimeout   time.Duration // Max time to wait for partial batches
	StorageTimeout time.Duration // Per-batch storage timeout
}

// AsyncWriter is a Storage that batches writes onto another Storage in a
// background goroutine. Queries pass straight through.
type AsyncWriter struct {
	storage   Storage
	eventChan chan eventBatch
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	options   AsyncOptions
}

type eventBatch struct {
	events []Event
	result chan error
}

// NewAsyncWriter starts the background worker. The returned func flushes
// pending events and stops it.
func NewAsyncWriter(storage Storage, opts AsyncOptions) (*AsyncWriter, func(context.Context) error) {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	if opts.BufferSize == 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout == 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout == 0 {
		opts.StorageTimeout = 5 * time.Second
	}

	aw := &AsyncWriter{
		storage:   storage,
		eventChan: make(chan eventBatch, opts.BufferSize),
		done:      make(chan struct{}),
		options:   opts,
	}

	aw.wg.Add(1)
	go aw.worker()

	return aw, aw.Close
}

// Store queues events and waits for the batch they land in to be written.
func (aw *AsyncWriter) Store(ctx context.Context, events ...Event) error {
	result := make(chan error, 1)

	select {
	case <-aw.done:
		return ErrStorageNotAvailable
	default:
	}

	select {
	case aw.eventChan <- eventBatch{events: events, result: result}:
		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-aw.done:
		return ErrStorageNotAvailable
	default:
		// Buffer full: write synchronously rather than drop the event.
		return aw.storage.Store(ctx, events...)
	}
}

func (aw *AsyncWriter) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	return aw.storage.Query(ctx, criteria)
}

func (aw *AsyncWriter) worker() {
	defer aw.wg.Done()

	batchEvents := make([]Event, 0, aw.options.BatchSize)
	pendingResults := make([]chan error, 0, aw.options.BatchSize)
	ticker := time.NewTicker(aw.options.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batchEvents) == 0 {
			return
		}

		// Detached from callers so a client timeout does not cancel the write.
		ctx, cancel := context.WithTimeout(context.Background(), aw.options.StorageTimeout)
		defer cancel()

		err := aw.storage.Store(ctx, batchEvents...)
		for _, ch := range pendingResults {
			ch <- err
		}

		batchEvents = batchEvents[:0]
		pendingResults = pendingResults[:0]
	}

	for {
		select {
		case batch := <-aw.eventChan:
			batchEvents = append(batchEvents, batch.events...)
			pendingResults = append(pendingResults, batch.result)
			if len(batchEvents) >= aw.options.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-aw.done:
			for {
				select {
				case batch := <-aw.eventChan:
					batchEvents = append(batchEvents, batch.events...)
					pendingResults = append(pendingResults, batch.result)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops the worker after draining queued events.
func (aw *AsyncWriter) Close(ctx context.Context) error {
	aw.closeOnce.Do(func() { close(aw.done) })

	finished := make(chan struct{})
	go func() {
		aw.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
