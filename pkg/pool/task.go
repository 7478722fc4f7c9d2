package pool

import (
	"context"
	"fmt"

	"github.com/Sternrassler/catalog-probe/pkg/catalog"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Prober checks one identifier. Implementations resolve failures to
// Exists=false instead of returning errors. *probe.Fetcher implements it.
type Prober interface {
	Probe(ctx context.Context, id catalog.Identifier) catalog.Result
}

// Task probes every identifier of a batch concurrently.
type Task struct {
	prober Prober
	logger zerolog.Logger
}

// NewTask creates a task running probes through prober.
func NewTask(prober Prober, logger zerolog.Logger) *Task {
	return &Task{
		prober: prober,
		logger: logger,
	}
}

// Run starts one probe per identifier and waits for all of them to settle.
// Results come back in completion order. Only a panicking probe makes Run
// fail, with an error wrapping ErrWorkerFatal; the remaining probes of the
// batch are cancelled and their results dropped.
func (t *Task) Run(ctx context.Context, batch catalog.Batch) ([]catalog.Result, error) {
	settled := make(chan catalog.Result, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range batch {
		id := id
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: probe %s panicked: %v", ErrWorkerFatal, id, r)
				}
			}()

			settled <- t.prober.Probe(gctx, id)
			return nil
		})
	}

	err := g.Wait()
	close(settled)
	if err != nil {
		return nil, err
	}

	results := make([]catalog.Result, 0, len(batch))
	for result := range settled {
		results = append(results, result)
	}

	t.logger.Debug().
		Int("batch_size", len(batch)).
		Int("results", len(results)).
		Msg("Batch settled")

	return results, nil
}
