package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/catalog-probe/pkg/catalog"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Common errors returned by Run.
var (
	// ErrWorkerFatal is returned when a worker fails before reporting its batch.
	ErrWorkerFatal = errors.New("worker failed fatally")

	// ErrCancelled is returned when the caller's context ends the run.
	ErrCancelled = errors.New("run cancelled")
)

// Config holds the pool configuration.
type Config struct {
	// Workers is the pool size W: the maximum number of active workers.
	Workers int

	// BatchSize is B: the maximum number of identifiers per batch.
	BatchSize int

	// Strategy selects the worker lifecycle.
	Strategy Strategy
}

// DefaultConfig returns four workers probing two identifiers each.
func DefaultConfig() Config {
	return Config{
		Workers:   4,
		BatchSize: 2,
		Strategy:  SpawnPerBatch,
	}
}

// Validate checks the pool configuration.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1 (got %d)", c.Workers)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1 (got %d)", c.BatchSize)
	}
	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	return nil
}

// State is the coordinator state of a run.
type State int

const (
	StateIdle State = iota
	StateDispatching
	StateActive
	StateDraining // queue empty, workers still live
	StateDone
	StateAborted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Strategy Strategy
	State    State

	// Results holds one record per probed identifier; order is undefined.
	Results []catalog.Result
	Exists  int
	Missing int

	// Batches lists every dispatched batch in dispatch order.
	Batches []catalog.Batch

	// Workers lists every worker in spawn order.
	Workers []WorkerHandle

	// MaxActive is the highest number of simultaneously live workers.
	MaxActive int

	Duration time.Duration
}

// Pool runs catalog probes over a bounded set of workers.
type Pool struct {
	prober Prober
	config Config
	logger zerolog.Logger
}

// New creates a new pool.
func New(prober Prober, cfg Config, logger zerolog.Logger) (*Pool, error) {
	if prober == nil {
		return nil, fmt.Errorf("prober is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	strategy, _ := ParseStrategy(string(cfg.Strategy))
	cfg.Strategy = strategy

	return &Pool{
		prober: prober,
		config: cfg,
		logger: logger,
	}, nil
}

// Run probes every identifier and blocks until all workers have exited.
// On a fatal worker failure or cancellation it returns the partial report
// together with an error wrapping ErrWorkerFatal or ErrCancelled.
func (p *Pool) Run(ctx context.Context, ids []catalog.Identifier) (*Report, error) {
	runID := uuid.NewString()
	logger := p.logger.With().
		Str("run_id", runID).
		Str("strategy", p.config.Strategy.String()).
		Logger()

	c := &coordinator{
		config:  p.config,
		prober:  p.prober,
		logger:  logger,
		runID:   runID,
		state:   StateIdle,
		queue:   NewWorkQueue(ids),
		total:   len(ids),
		handles: make(map[string]*WorkerHandle),
		events:  make(chan workerEvent, p.config.Workers),
		halt:    make(chan struct{}),
	}

	return c.run(ctx)
}

// coordinator is the single-threaded dispatch state machine of one run.
// Only its goroutine touches the queue, the handles and the results.
type coordinator struct {
	config Config
	prober Prober
	logger zerolog.Logger
	runID  string
	state  State

	queue   *WorkQueue
	total   int
	results ResultsCollection
	batches []catalog.Batch

	handles map[string]*WorkerHandle
	order   []*WorkerHandle
	spawned int
	live    int
	peak    int

	events chan workerEvent
	halt   chan struct{}
}

func (c *coordinator) run(ctx context.Context) (*Report, error) {
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(c.halt)

	c.transition(StateDispatching)
	c.logger.Info().
		Int("identifiers", c.total).
		Int("workers", c.config.Workers).
		Int("batch_size", c.config.BatchSize).
		Msg("Starting run")

	for i := 0; i < c.config.Workers && !c.queue.IsEmpty(); i++ {
		c.spawn(runCtx, c.queue.PopFront(c.config.BatchSize))
	}
	c.advance()

	for c.state != StateDone {
		select {
		case ev := <-c.events:
			// Probes unblocked by cancellation report too; never dispatch on them.
			if ctx.Err() != nil {
				return c.cancelled(ctx, start)
			}
			if err := c.handle(runCtx, ev); err != nil {
				return c.finish(start, StateAborted), err
			}
		case <-ctx.Done():
			return c.cancelled(ctx, start)
		}
	}

	return c.finish(start, StateDone), nil
}

func (c *coordinator) cancelled(ctx context.Context, start time.Time) (*Report, error) {
	c.logger.Warn().
		Int("queued", c.queue.Len()).
		Int("live_workers", c.live).
		Msg("Run cancelled")
	return c.finish(start, StateAborted), fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
}

// handle processes one worker message.
func (c *coordinator) handle(ctx context.Context, ev workerEvent) error {
	h, ok := c.handles[ev.workerID]
	if !ok {
		return fmt.Errorf("event %s from unknown worker %q", ev.kind, ev.workerID)
	}

	switch ev.kind {
	case eventResults:
		c.results.Append(ev.results...)
		h.State = WorkerAwaitingWork

		c.logger.Info().
			Str("worker_id", h.ID).
			Int("batch_results", len(ev.results)).
			Int("done_processing", c.results.Len()).
			Int("total", c.total).
			Msg("Batch reported")

		if c.config.Strategy.reusesWorkers() {
			if c.queue.IsEmpty() {
				close(h.inbox)
				c.logger.Debug().Str("worker_id", h.ID).Msg("Queue empty, shutting worker down")
			} else {
				batch := c.queue.PopFront(c.config.BatchSize)
				c.assign(h, batch)
				h.inbox <- batch
				c.logger.Debug().
					Str("worker_id", h.ID).
					Int("batch_size", len(batch)).
					Msg("Pushing new batch into worker")
			}
		}

	case eventExit:
		h.State = WorkerExited
		c.live--
		poolWorkersActive.WithLabelValues(c.config.Strategy.String()).Dec()

		c.logger.Debug().
			Str("worker_id", h.ID).
			Int("batches", h.Batches).
			Msg("Worker stopped")

		if !c.config.Strategy.reusesWorkers() && !c.queue.IsEmpty() {
			c.spawn(ctx, c.queue.PopFront(c.config.BatchSize))
		}

	case eventFailure:
		poolWorkerFailuresTotal.WithLabelValues(c.config.Strategy.String()).Inc()
		c.logger.Error().
			Err(ev.err).
			Str("worker_id", h.ID).
			Int("queued", c.queue.Len()).
			Int("collected", c.results.Len()).
			Msg("Worker failed, aborting run")
		return fmt.Errorf("worker %s: %w", h.ID, ev.err)
	}

	c.advance()
	return nil
}

// spawn starts a worker goroutine holding batch.
func (c *coordinator) spawn(ctx context.Context, batch catalog.Batch) {
	c.spawned++
	h := &WorkerHandle{
		ID:    fmt.Sprintf("worker-%d", c.spawned),
		State: WorkerCreated,
	}
	if c.config.Strategy.reusesWorkers() {
		h.inbox = make(chan catalog.Batch, 1)
	}

	c.handles[h.ID] = h
	c.order = append(c.order, h)
	c.live++
	if c.live > c.peak {
		c.peak = c.live
	}
	poolWorkersSpawnedTotal.WithLabelValues(c.config.Strategy.String()).Inc()
	poolWorkersActive.WithLabelValues(c.config.Strategy.String()).Inc()

	c.assign(h, batch)

	logger := c.logger.With().Str("worker_id", h.ID).Logger()
	w := &worker{
		id:       h.ID,
		strategy: c.config.Strategy,
		task:     NewTask(c.prober, logger),
		inbox:    h.inbox,
		events:   c.events,
		halt:     c.halt,
		logger:   logger,
	}

	logger.Debug().Int("batch_size", len(batch)).Msg("Worker spawned")
	go w.run(ctx, batch)
}

// assign records batch as held by h.
func (c *coordinator) assign(h *WorkerHandle, batch catalog.Batch) {
	h.State = WorkerActive
	h.Batches++
	c.batches = append(c.batches, batch)
	poolBatchesDispatchedTotal.WithLabelValues(c.config.Strategy.String()).Inc()
}

// advance moves the state machine after dispatch decisions.
func (c *coordinator) advance() {
	switch {
	case c.queue.IsEmpty() && c.live == 0:
		c.transition(StateDone)
	case c.queue.IsEmpty():
		c.transition(StateDraining)
	default:
		c.transition(StateActive)
	}
}

func (c *coordinator) transition(next State) {
	if c.state == next {
		return
	}
	c.logger.Debug().
		Str("from", c.state.String()).
		Str("to", next.String()).
		Msg("Coordinator state changed")
	c.state = next
}

// finish builds the report. Workers still live after an abort are no
// longer counted as active.
func (c *coordinator) finish(start time.Time, state State) *Report {
	c.transition(state)
	duration := time.Since(start)

	poolRunDuration.WithLabelValues(c.config.Strategy.String(), state.String()).Observe(duration.Seconds())
	if c.live > 0 {
		poolWorkersActive.WithLabelValues(c.config.Strategy.String()).Sub(float64(c.live))
	}

	exists, missing := c.results.Counts()

	workers := make([]WorkerHandle, 0, len(c.order))
	for _, h := range c.order {
		workers = append(workers, WorkerHandle{ID: h.ID, State: h.State, Batches: h.Batches})
	}

	batches := make([]catalog.Batch, len(c.batches))
	copy(batches, c.batches)

	c.logger.Info().
		Str("state", state.String()).
		Int("results", c.results.Len()).
		Int("exists", exists).
		Int("missing", missing).
		Int("workers_spawned", c.spawned).
		Int("max_active", c.peak).
		Dur("duration", duration).
		Msg("Run finished")

	return &Report{
		RunID:     c.runID,
		Strategy:  c.config.Strategy,
		State:     state,
		Results:   c.results.Records(),
		Exists:    exists,
		Missing:   missing,
		Batches:   batches,
		Workers:   workers,
		MaxActive: c.peak,
		Duration:  duration,
	}
}
