package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/rezonia/einvoice-gateway/internal/model"
)

const schema = `
	CREATE TABLE IF NOT EXISTS invoices (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		order_no TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'pending',
		invoice_number TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status);
`

// SQLite is a Store backed by a local SQLite file. The full invoice is kept
// as JSON; status and invoice number are mirrored into columns for queries.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (and migrates) the database at path
func OpenSQLite(path string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// WAL keeps readers unblocked while a batch writes
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("invoice store opened", zap.String("path", path))
	return &SQLite{db: db, logger: logger}, nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// List returns every invoice in insertion order
func (s *SQLite) List(ctx context.Context) ([]*model.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM invoices ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var out []*model.Invoice
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		inv, err := decodeInvoice(body)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Get returns one invoice
func (s *SQLite) Get(ctx context.Context, orderNo string) (*model.Invoice, error) {
	return s.get(ctx, s.db, orderNo)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLite) get(ctx context.Context, q queryer, orderNo string) (*model.Invoice, error) {
	var body string
	err := q.QueryRowContext(ctx, `SELECT body FROM invoices WHERE order_no = ?`, orderNo).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, orderNo)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice %s: %w", orderNo, err)
	}
	return decodeInvoice(body)
}

// Put inserts or replaces an invoice, keeping its original position and,
// once issued, its result
func (s *SQLite) Put(ctx context.Context, inv *model.Invoice) error {
	if strings.TrimSpace(inv.MerchantOrderNo) == "" {
		return fmt.Errorf("put invoice: %w", model.NewValidationError("merchant_order_no", nil, "required", "order number is required"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prev, err := s.get(ctx, tx, inv.MerchantOrderNo)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	stored := queued(prev, inv)
	body, err := encodeInvoice(stored)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (order_no, status, invoice_number, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(order_no) DO UPDATE SET
			status = excluded.status,
			invoice_number = excluded.invoice_number,
			body = excluded.body,
			updated_at = CURRENT_TIMESTAMP
	`, stored.MerchantOrderNo, string(stored.Status), stored.InvoiceNumber, body)
	if err != nil {
		s.logger.Error("failed to put invoice", zap.String("order_no", stored.MerchantOrderNo), zap.Error(err))
		return fmt.Errorf("failed to put invoice %s: %w", stored.MerchantOrderNo, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus applies u inside a transaction
func (s *SQLite) UpdateStatus(ctx context.Context, orderNo string, u StatusUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inv, err := s.get(ctx, tx, orderNo)
	if err != nil {
		return err
	}
	u.Apply(inv)
	body, err := encodeInvoice(inv)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE invoices SET status = ?, invoice_number = ?, body = ?, updated_at = CURRENT_TIMESTAMP
		WHERE order_no = ?
	`, string(inv.Status), inv.InvoiceNumber, body, orderNo)
	if err != nil {
		return fmt.Errorf("failed to update invoice %s: %w", orderNo, err)
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit status update", zap.String("order_no", orderNo), zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func encodeInvoice(inv *model.Invoice) (string, error) {
	body, err := json.Marshal(inv)
	if err != nil {
		return "", fmt.Errorf("failed to encode invoice %s: %w", inv.MerchantOrderNo, err)
	}
	return string(body), nil
}

func decodeInvoice(body string) (*model.Invoice, error) {
	var inv model.Invoice
	if err := json.Unmarshal([]byte(body), &inv); err != nil {
		return nil, fmt.Errorf("failed to decode invoice: %w", err)
	}
	return &inv, nil
}
