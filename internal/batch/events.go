package batch

import (
	"time"

	dec "github.com/rezonia/einvoice-gateway/internal/decimal"
	"github.com/rezonia/einvoice-gateway/internal/model"
)

// EventType names a batch lifecycle event
type EventType string

const (
	EventBatchStarted   EventType = "batch_started"
	EventItemProcessing EventType = "item_processing"
	EventItemSucceeded  EventType = "item_succeeded"
	EventItemFailed     EventType = "item_failed"
	EventItemSkipped    EventType = "item_skipped"
	EventProgress       EventType = "progress"
	EventBatchPaused    EventType = "batch_paused"
	EventBatchResumed   EventType = "batch_resumed"
	EventBatchCompleted EventType = "batch_completed"
	EventBatchAborted   EventType = "batch_aborted"
)

// Terminal reports whether the event ends the batch
func (t EventType) Terminal() bool {
	return t == EventBatchCompleted || t == EventBatchAborted
}

// Stats are the running counters of a job
type Stats struct {
	Total      int `json:"total"`
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// Percentage is round(processed / total * 100)
func (s Stats) Percentage() int {
	return dec.Percentage(s.Processed, s.Total)
}

// Event is delivered to the job's event handler
type Event struct {
	Type       EventType     `json:"type"`
	JobID      string        `json:"job_id"`
	OrderNo    string        `json:"order_no,omitempty"`
	Index      int           `json:"index"`
	Result     *model.Result `json:"result,omitempty"`
	Stats      Stats         `json:"stats"`
	Percentage int           `json:"percentage"`
	Timestamp  time.Time     `json:"timestamp"`
}

// EventHandler receives events on the job goroutine; it must not block
type EventHandler func(Event)

// Summary is the final report of a job
type Summary struct {
	JobID      string       `json:"job_id"`
	Vendor     model.Vendor `json:"vendor"`
	Mode       model.Mode   `json:"mode"`
	State      State        `json:"state"`
	Stats      Stats        `json:"stats"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at,omitempty"`
}
