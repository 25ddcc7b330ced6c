package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/einvoice-gateway/internal/model"
	"github.com/rezonia/einvoice-gateway/internal/store"
)

// State is the lifecycle state of a job. An orchestrator without an
// active job is idle; see Orchestrator.Active.
type State string

const (
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
)

// Terminal reports whether the job has finished
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// Job is one pass over a snapshot of the invoice queue. Items are
// submitted strictly one at a time in queue order.
type Job struct {
	id      string
	mode    model.Mode
	queue   []string
	creator Creator
	store   store.Store
	logger  *zap.Logger
	onEvent EventHandler
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	mu             sync.Mutex
	state          State
	stats          Stats
	pauseRequested bool
	startedAt      time.Time
	finishedAt     time.Time
}

// ID returns the job identifier
func (j *Job) ID() string {
	return j.id
}

// State returns the current state
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Stats returns a snapshot of the counters
func (j *Job) Stats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stats
}

// Summary returns the current report of the job
func (j *Job) Summary() Summary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Summary{
		JobID:      j.id,
		Vendor:     j.creator.Vendor(),
		Mode:       j.mode,
		State:      j.state,
		Stats:      j.stats,
		StartedAt:  j.startedAt,
		FinishedAt: j.finishedAt,
	}
}

// Pause asks the job to stop before the next item. The item in flight,
// if any, is allowed to finish.
func (j *Job) Pause() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return ErrNotRunning
	}
	j.pauseRequested = true
	return nil
}

// Resume continues a paused job at the next unprocessed item
func (j *Job) Resume() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return ErrNotRunning
	}
	if !j.pauseRequested {
		return ErrNotPaused
	}
	j.pauseRequested = false
	select {
	case j.wake <- struct{}{}:
	default:
	}
	return nil
}

// Abort cancels the job, including the vendor call in flight
func (j *Job) Abort() {
	j.cancel()
}

// Done is closed once the job reaches a terminal state
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes and returns its summary
func (j *Job) Wait() Summary {
	<-j.done
	return j.Summary()
}

func (j *Job) run() {
	defer close(j.done)
	defer j.cancel()

	j.logger.Info("batch started", zap.Int("total", len(j.queue)))
	j.emit(EventBatchStarted, -1, "", nil)

	for i := 0; i < len(j.queue); {
		if j.ctx.Err() != nil {
			j.finish(StateAborted)
			return
		}
		if j.pausePending() {
			if !j.waitForResume(i) {
				j.finish(StateAborted)
				return
			}
			continue
		}
		if !j.process(i, j.queue[i]) {
			j.finish(StateAborted)
			return
		}
		i++
	}
	j.finish(StateCompleted)
}

func (j *Job) pausePending() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.pauseRequested
}

// waitForResume parks the job until Resume or Abort. It returns false on abort.
func (j *Job) waitForResume(next int) bool {
	j.setState(StatePaused)
	j.logger.Info("batch paused", zap.Int("next_index", next))
	j.emit(EventBatchPaused, next, "", nil)

	for {
		select {
		case <-j.ctx.Done():
			return false
		case <-j.wake:
		}
		if !j.pausePending() {
			break
		}
	}

	j.setState(StateRunning)
	j.logger.Info("batch resumed", zap.Int("next_index", next))
	j.emit(EventBatchResumed, next, "", nil)
	return true
}

// process submits one item. It returns false when the job was aborted
// during the item; the item is then restored and not counted.
func (j *Job) process(index int, orderNo string) bool {
	persist := context.WithoutCancel(j.ctx)

	inv, err := j.store.Get(j.ctx, orderNo)
	if err != nil {
		if j.ctx.Err() != nil {
			return false
		}
		j.logger.Error("failed to load invoice", zap.String("order_no", orderNo), zap.Error(err))
		j.complete(index, orderNo, model.Failure(model.KindInternal, err.Error()))
		return true
	}

	// status is re-read at dequeue so work done elsewhere, or before a
	// pause, is never submitted twice
	if inv.Status.Done() {
		j.mu.Lock()
		j.stats.Skipped++
		j.stats.Processed++
		j.mu.Unlock()
		j.emit(EventItemSkipped, index, orderNo, nil)
		j.emit(EventProgress, index, orderNo, nil)
		return true
	}

	prior := inv.Status
	j.writeStatus(persist, orderNo, store.StatusUpdate{Status: model.StatusProcessing})
	j.emit(EventItemProcessing, index, orderNo, nil)

	res := j.create(inv)
	if !res.Success && (res.Aborted() || j.ctx.Err() != nil) {
		j.writeStatus(persist, orderNo, store.StatusUpdate{Status: prior, Error: inv.Error})
		j.logger.Info("item aborted", zap.String("order_no", orderNo))
		return false
	}

	j.writeStatus(persist, orderNo, store.FromResult(res))
	j.complete(index, orderNo, res)
	return true
}

// create calls the vendor; a panic becomes a failed result
func (j *Job) create(inv *model.Invoice) (res model.Result) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.Error("creator panic", zap.String("order_no", inv.MerchantOrderNo), zap.Any("panic", r))
			res = model.Failure(model.KindInternal, fmt.Sprintf("internal error: %v", r))
		}
	}()
	return j.creator.Create(j.ctx, inv, j.mode)
}

func (j *Job) complete(index int, orderNo string, res model.Result) {
	j.mu.Lock()
	j.stats.Processed++
	if res.Success {
		j.stats.Successful++
	} else {
		j.stats.Failed++
	}
	j.mu.Unlock()

	if res.Success {
		j.emit(EventItemSucceeded, index, orderNo, &res)
	} else {
		j.emit(EventItemFailed, index, orderNo, &res)
	}
	j.emit(EventProgress, index, orderNo, nil)
}

func (j *Job) writeStatus(ctx context.Context, orderNo string, u store.StatusUpdate) {
	if err := j.store.UpdateStatus(ctx, orderNo, u); err != nil {
		j.logger.Error("failed to update invoice status",
			zap.String("order_no", orderNo),
			zap.String("status", string(u.Status)),
			zap.Error(err),
		)
	}
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

func (j *Job) finish(s State) {
	j.mu.Lock()
	j.state = s
	j.pauseRequested = false
	j.finishedAt = j.now()
	stats := j.stats
	j.mu.Unlock()

	j.logger.Info("batch finished",
		zap.String("state", string(s)),
		zap.Int("processed", stats.Processed),
		zap.Int("successful", stats.Successful),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped),
	)
	if s == StateAborted {
		j.emit(EventBatchAborted, -1, "", nil)
		return
	}
	j.emit(EventBatchCompleted, -1, "", nil)
}

func (j *Job) emit(t EventType, index int, orderNo string, res *model.Result) {
	if j.onEvent == nil {
		return
	}
	stats := j.Stats()
	j.onEvent(Event{
		Type:       t,
		JobID:      j.id,
		OrderNo:    orderNo,
		Index:      index,
		Result:     res,
		Stats:      stats,
		Percentage: stats.Percentage(),
		Timestamp:  j.now(),
	})
}
