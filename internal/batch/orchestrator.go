package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rezonia/einvoice-gateway/internal/model"
	"github.com/rezonia/einvoice-gateway/internal/store"
)

var (
	// ErrEmptyQueue is returned when there is nothing to submit
	ErrEmptyQueue = errors.New("invoice queue is empty")

	// ErrBatchRunning is returned when a job is already in progress
	ErrBatchRunning = errors.New("a batch is already running")

	// ErrNotRunning is returned when pausing or resuming a finished job
	ErrNotRunning = errors.New("batch is not running")

	// ErrNotPaused is returned when resuming a job that is not paused
	ErrNotPaused = errors.New("batch is not paused")

	// ErrJobNotFound is returned for an unknown job ID
	ErrJobNotFound = errors.New("batch not found")
)

// Creator issues one invoice. *vendor.Adapter satisfies it.
type Creator interface {
	Vendor() model.Vendor
	Create(ctx context.Context, inv *model.Invoice, mode model.Mode) model.Result
}

// Orchestrator drives jobs over the invoice store. Only one job runs at a
// time because vendor signatures are timestamp sensitive.
type Orchestrator struct {
	store   store.Store
	logger  *zap.Logger
	onEvent EventHandler
	now     func() time.Time

	mu     sync.Mutex
	jobs   map[string]*Job
	active *Job
}

// Option configures an orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithEventHandler sets the handler that receives every job event
func WithEventHandler(h EventHandler) Option {
	return func(o *Orchestrator) {
		o.onEvent = h
	}
}

// WithClock sets the time source for event timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an orchestrator over st
func New(st store.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  st,
		logger: zap.NewNop(),
		now:    time.Now,
		jobs:   make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start snapshots the queue and runs it in the background through creator.
// Cancelling ctx aborts the job.
func (o *Orchestrator) Start(ctx context.Context, creator Creator, mode model.Mode) (*Job, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil && !o.active.State().Terminal() {
		return nil, ErrBatchRunning
	}

	invoices, err := o.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice queue: %w", err)
	}
	if len(invoices) == 0 {
		return nil, ErrEmptyQueue
	}

	queue := make([]string, len(invoices))
	for i, inv := range invoices {
		queue[i] = inv.MerchantOrderNo
	}

	id := uuid.NewString()
	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		id:      id,
		mode:    mode,
		queue:   queue,
		creator: creator,
		store:   o.store,
		logger: o.logger.With(
			zap.String("job_id", id),
			zap.String("vendor", string(creator.Vendor())),
			zap.String("mode", string(mode)),
		),
		onEvent:   o.onEvent,
		now:       o.now,
		ctx:       jobCtx,
		cancel:    cancel,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		state:     StateRunning,
		stats:     Stats{Total: len(queue)},
		startedAt: o.now(),
	}

	o.jobs[id] = job
	o.active = job
	go job.run()
	return job, nil
}

// Run starts a job and waits for it to finish
func (o *Orchestrator) Run(ctx context.Context, creator Creator, mode model.Mode) (Summary, error) {
	job, err := o.Start(ctx, creator, mode)
	if err != nil {
		return Summary{}, err
	}
	return job.Wait(), nil
}

// Job returns a job started by this orchestrator
func (o *Orchestrator) Job(id string) (*Job, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	job, ok := o.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

// Active returns the running or paused job, if any
func (o *Orchestrator) Active() (*Job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active == nil || o.active.State().Terminal() {
		return nil, false
	}
	return o.active, true
}
