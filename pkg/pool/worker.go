package pool

import (
	"context"
	"fmt"

	"github.com/Sternrassler/catalog-probe/pkg/catalog"
	"github.com/rs/zerolog"
)

// WorkerState is the lifecycle state of a worker.
type WorkerState int

const (
	// WorkerCreated: spawned, no batch assigned yet.
	WorkerCreated WorkerState = iota

	// WorkerActive: holding a batch.
	WorkerActive

	// WorkerAwaitingWork: reported its batch, waiting for a batch or shutdown.
	WorkerAwaitingWork

	// WorkerExited: goroutine finished.
	WorkerExited
)

// String implements fmt.Stringer.
func (s WorkerState) String() string {
	switch s {
	case WorkerCreated:
		return "created"
	case WorkerActive:
		return "active"
	case WorkerAwaitingWork:
		return "awaiting_work"
	case WorkerExited:
		return "exited"
	default:
		return "unknown"
	}
}

// WorkerHandle is the coordinator's view of one worker.
type WorkerHandle struct {
	ID      string
	State   WorkerState
	Batches int // batches dispatched to this worker

	inbox chan catalog.Batch // PersistentReuse only
}

// worker is one worker goroutine. It shares nothing with the coordinator
// except the events channel and its inbox.
type worker struct {
	id       string
	strategy Strategy
	task     *Task
	inbox    <-chan catalog.Batch
	events   chan<- workerEvent
	halt     <-chan struct{}
	logger   zerolog.Logger
}

// run processes batch and, for PersistentReuse, every batch pushed to the
// inbox afterwards. It always ends with an exit event.
func (w *worker) run(ctx context.Context, batch catalog.Batch) {
	defer w.send(workerEvent{kind: eventExit, workerID: w.id})
	defer func() {
		if r := recover(); r != nil {
			w.send(workerEvent{
				kind:     eventFailure,
				workerID: w.id,
				err:      fmt.Errorf("%w: worker %s panicked: %v", ErrWorkerFatal, w.id, r),
			})
		}
	}()

	for {
		w.logger.Debug().
			Int("batch_size", len(batch)).
			Msg("Processing batch")

		results, err := w.task.Run(ctx, batch)
		if err != nil {
			w.send(workerEvent{kind: eventFailure, workerID: w.id, err: err})
			return
		}

		if !w.send(workerEvent{kind: eventResults, workerID: w.id, results: results}) {
			return
		}

		if !w.strategy.reusesWorkers() {
			return
		}

		next, ok := w.await()
		if !ok {
			return
		}
		batch = next
	}
}

// await blocks until the coordinator pushes a batch or shuts the worker down.
func (w *worker) await() (catalog.Batch, bool) {
	select {
	case batch, ok := <-w.inbox:
		return batch, ok
	case <-w.halt:
		return nil, false
	}
}

// send delivers an event unless the coordinator has stopped listening.
func (w *worker) send(ev workerEvent) bool {
	select {
	case w.events <- ev:
		return true
	case <-w.halt:
		return false
	}
}
