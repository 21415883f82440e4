package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"docgen"
	"docgen/internal/generate"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultWorkerPrefix = "render-worker"

// Generator produces one artifact. *generate.Pipeline implements it.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (generate.Result, error)
}

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Event describes the progress of one item.
type Event struct {
	Index   int
	Worker  string
	Request generate.Request
	Status  Status
	Result  generate.Result
	Err     error
}

// Observer receives item events from every worker and must be safe for
// concurrent use. Panics raised by Observe are recovered and logged.
type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Coordinator fans a batch out over a fixed pool of workers.
type Coordinator struct {
	generator    Generator
	maxWorkers   int
	workerPrefix string
	logger       zerolog.Logger
	observer     Observer
}

type Option func(*Coordinator)

// WithMaxWorkers caps the pool. n <= 0 keeps GOMAXPROCS.
func WithMaxWorkers(n int) Option {
	return func(c *Coordinator) { c.maxWorkers = n }
}

// WithWorkerPrefix names workers "<prefix>-N" instead of "render-worker-N".
func WithWorkerPrefix(prefix string) Option {
	return func(c *Coordinator) { c.workerPrefix = prefix }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

func WithObserver(observer Observer) Option {
	return func(c *Coordinator) { c.observer = observer }
}

func New(generator Generator, opts ...Option) *Coordinator {
	c := &Coordinator{
		generator:    generator,
		workerPrefix: DefaultWorkerPrefix,
		logger:       docgen.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Workers returns the pool size used for a batch of n items.
func (c *Coordinator) Workers(n int) int {
	available := runtime.GOMAXPROCS(0)
	if c.maxWorkers > 0 && c.maxWorkers < available {
		available = c.maxWorkers
	}
	return max(1, min(n, available))
}

// Run generates every request and returns the results in submission order.
// Every item runs to completion; a failed item never cancels its siblings.
// When any item fails the error is a *BatchError and the slots of the
// failed items are zero.
func (c *Coordinator) Run(ctx context.Context, requests []generate.Request) ([]generate.Result, error) {
	return c.RunWithObserver(ctx, requests, nil)
}

// RunWithObserver is Run with an additional per-call observer.
func (c *Coordinator) RunWithObserver(ctx context.Context, requests []generate.Request, observer Observer) ([]generate.Result, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: batch must contain at least one request", generate.ErrInvalidArgument)
	}

	batch := make([]generate.Request, len(requests))
	for i, req := range requests {
		batch[i] = req.Clone()
	}

	jobs := make(chan int, len(batch))
	for i := range batch {
		jobs <- i
	}
	close(jobs)

	results := make([]generate.Result, len(batch))
	errs := make([]error, len(batch))
	workers := c.Workers(len(batch))

	var seq atomic.Int64
	var g errgroup.Group
	c.logger.Info().Int("items", len(batch)).Int("workers", workers).Msg("Batch started")

	for range workers {
		g.Go(func() error {
			worker := fmt.Sprintf("%s-%d", c.workerPrefix, seq.Add(1))
			for idx := range jobs {
				results[idx], errs[idx] = c.runItem(ctx, worker, idx, batch[idx], observer)
			}
			return nil
		})
	}
	_ = g.Wait()

	var failures []ItemFailure
	for idx, err := range errs {
		if err == nil {
			continue
		}
		kind := generate.KindOf(err)
		failures = append(failures, ItemFailure{Index: idx, Request: batch[idx], Kind: kind, Err: err})
	}
	if len(failures) > 0 {
		c.logger.Error().Int("items", len(batch)).Int("failed", len(failures)).Msg("Batch finished with failures")
		return results, &BatchError{Total: len(batch), Failures: failures}
	}

	c.logger.Info().Int("items", len(batch)).Msg("Batch finished")
	return results, nil
}

func (c *Coordinator) runItem(ctx context.Context, worker string, idx int, req generate.Request, observer Observer) (res generate.Result, err error) {
	c.notify(observer, Event{Index: idx, Worker: worker, Request: req, Status: StatusRunning})
	defer func() {
		if r := recover(); r != nil {
			res, err = generate.Result{}, fmt.Errorf("%w: item panicked: %v", generate.ErrIO, r)
		}
		ev := Event{Index: idx, Worker: worker, Request: req, Status: StatusCompleted, Result: res, Err: err}
		if err != nil {
			ev.Status = StatusFailed
			c.logger.Warn().Err(err).Int("index", idx).Str("worker", worker).Str("template", req.TemplateName).Msg("Batch item failed")
		} else {
			c.logger.Debug().Int("index", idx).Str("worker", worker).Str("output", res.OutputPath).Msg("Batch item done")
		}
		c.notify(observer, ev)
	}()

	return c.generator.Generate(ctx, req)
}

// notify hands ev to every observer. A panicking observer is logged and
// never changes the outcome of the item.
func (c *Coordinator) notify(extra Observer, ev Event) {
	for _, observer := range []Observer{c.observer, extra} {
		if observer != nil {
			c.observe(observer, ev)
		}
	}
}

func (c *Coordinator) observe(observer Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Int("index", ev.Index).Str("worker", ev.Worker).Msg("Batch observer panicked")
		}
	}()
	observer.Observe(ev)
}
