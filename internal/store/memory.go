package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rezonia/einvoice-gateway/internal/model"
)

// Memory is an in-process Store. Invoices are copied on the way in and out.
type Memory struct {
	mu       sync.RWMutex
	invoices map[string]*model.Invoice
	order    []string
}

// NewMemory creates an empty memory store
func NewMemory() *Memory {
	return &Memory{invoices: make(map[string]*model.Invoice)}
}

// List returns every invoice in insertion order
func (m *Memory) List(ctx context.Context) ([]*model.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Invoice, 0, len(m.order))
	for _, no := range m.order {
		out = append(out, m.invoices[no].Clone())
	}
	return out, nil
}

// Get returns one invoice
func (m *Memory) Get(ctx context.Context, orderNo string) (*model.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inv, ok := m.invoices[orderNo]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, orderNo)
	}
	return inv.Clone(), nil
}

// Put inserts or replaces an invoice. Issued invoices keep their result.
func (m *Memory) Put(ctx context.Context, inv *model.Invoice) error {
	if strings.TrimSpace(inv.MerchantOrderNo) == "" {
		return fmt.Errorf("put invoice: %w", model.NewValidationError("merchant_order_no", nil, "required", "order number is required"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.invoices[inv.MerchantOrderNo]
	if !ok {
		m.order = append(m.order, inv.MerchantOrderNo)
	}
	m.invoices[inv.MerchantOrderNo] = queued(prev, inv)
	return nil
}

// UpdateStatus applies u to the stored invoice
func (m *Memory) UpdateStatus(ctx context.Context, orderNo string, u StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, ok := m.invoices[orderNo]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, orderNo)
	}
	u.Apply(inv)
	return nil
}
