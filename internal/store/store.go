package store

import (
	"context"
	"errors"

	"github.com/rezonia/einvoice-gateway/internal/model"
)

// ErrNotFound is returned when no invoice has the requested order number
var ErrNotFound = errors.New("invoice not found")

// Store is the invoice table the batch orchestrator works against
type Store interface {
	// List returns every invoice in insertion order
	List(ctx context.Context) ([]*model.Invoice, error)

	// Get returns the invoice with the given merchant order number
	Get(ctx context.Context, orderNo string) (*model.Invoice, error)

	// Put inserts or replaces an invoice keyed by its merchant order number.
	// An invoice already stored as success or voided keeps its status and
	// issued numbers, so queueing it again never issues it twice.
	Put(ctx context.Context, inv *model.Invoice) error

	// UpdateStatus records the outcome of a submission
	UpdateStatus(ctx context.Context, orderNo string, u StatusUpdate) error
}

// StatusUpdate is the status bookkeeping written back after a vendor call
type StatusUpdate struct {
	Status        model.Status
	InvoiceNumber string
	RandomNumber  string
	CreateTime    string
	Error         string
}

// Apply writes u into inv. Issued numbers are only overwritten when
// present; a success clears the error and a failure records it.
func (u StatusUpdate) Apply(inv *model.Invoice) {
	inv.Status = u.Status
	if u.InvoiceNumber != "" {
		inv.InvoiceNumber = u.InvoiceNumber
	}
	if u.RandomNumber != "" {
		inv.RandomNumber = u.RandomNumber
	}
	if u.CreateTime != "" {
		inv.CreateTime = u.CreateTime
	}
	switch u.Status {
	case model.StatusSuccess:
		inv.Error = ""
	case model.StatusFailed:
		inv.Error = u.Error
	}
}

// queued prepares next for storage over prev, which is nil for a new
// order number.
func queued(prev, next *model.Invoice) *model.Invoice {
	stored := next.Clone()
	if prev != nil && prev.Status.Done() {
		stored.Status = prev.Status
		stored.InvoiceNumber = prev.InvoiceNumber
		stored.RandomNumber = prev.RandomNumber
		stored.CreateTime = prev.CreateTime
		stored.Error = prev.Error
	}
	if stored.Status == "" {
		stored.Status = model.StatusPending
	}
	return stored
}

// FromResult converts a vendor result into the matching status update
func FromResult(res model.Result) StatusUpdate {
	if res.Success {
		return StatusUpdate{
			Status:        model.StatusSuccess,
			InvoiceNumber: res.InvoiceNumber,
			RandomNumber:  res.RandomNumber,
			CreateTime:    res.CreateTime,
		}
	}
	return StatusUpdate{Status: model.StatusFailed, Error: res.Error}
}

// PutAll stores every invoice, stopping at the first error
func PutAll(ctx context.Context, s Store, invoices []*model.Invoice) error {
	for _, inv := range invoices {
		if err := s.Put(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}
