// Package sqlite persists order history in a SQLite database using the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/repositories"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id         TEXT PRIMARY KEY,
	product_id TEXT NOT NULL,
	quantity   INTEGER NOT NULL,
	unit_price TEXT NOT NULL,
	total      TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS order_status_log (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id    TEXT NOT NULL,
	status      TEXT NOT NULL,
	recorded_at TEXT NOT NULL
);`

// StatusEntry is one row of an order's status log
type StatusEntry struct {
	Status     entities.OrderStatus
	RecordedAt time.Time
}

// OrderRepository stores the latest record of each order plus an append-only
// status log. Nothing is ever deleted.
type OrderRepository struct {
	db *sql.DB
}

// Verify interface compliance
var _ repositories.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository opens (or creates) the database at dsn. Use ":memory:"
// for a throwaway database.
func NewOrderRepository(ctx context.Context, dsn string) (*OrderRepository, error) {
	if dsn == "" {
		dsn = "supplychain.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create order tables: %w", err)
	}
	return &OrderRepository{db: db}, nil
}

// Close releases the underlying database handle
func (r *OrderRepository) Close() error {
	return r.db.Close()
}

// SaveOrder upserts the order row and appends its status to the log
func (r *OrderRepository) SaveOrder(ctx context.Context, record entities.OrderRecord) error {
	if record.ID == "" {
		return fmt.Errorf("order id cannot be empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, product_id, quantity, unit_price, total, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at`,
		string(record.ID),
		string(record.ProductID),
		int64(record.Quantity),
		record.UnitPrice.String(),
		record.Total.String(),
		record.Status.String(),
		formatTime(record.CreatedAt),
		formatTime(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert order %s: %w", record.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_status_log (order_id, status, recorded_at) VALUES (?, ?, ?)`,
		string(record.ID), record.Status.String(), formatTime(record.UpdatedAt))
	if err != nil {
		return fmt.Errorf("log status of order %s: %w", record.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order %s: %w", record.ID, err)
	}
	return nil
}

// GetOrder returns the latest record of an order
func (r *OrderRepository) GetOrder(ctx context.Context, id entities.OrderID) (entities.OrderRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, product_id, quantity, unit_price, total, status, created_at, updated_at
		FROM orders WHERE id = ?`, string(id))

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.OrderRecord{}, fmt.Errorf("%w: %s", repositories.ErrOrderNotFound, id)
	}
	return record, err
}

// ListOrders returns every order in first-saved order
func (r *OrderRepository) ListOrders(ctx context.Context) ([]entities.OrderRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, quantity, unit_price, total, status, created_at, updated_at
		FROM orders ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []entities.OrderRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// StatusLog returns every status saved for an order, oldest first
func (r *OrderRepository) StatusLog(ctx context.Context, id entities.OrderID) ([]StatusEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, recorded_at FROM order_status_log WHERE order_id = ? ORDER BY seq`, string(id))
	if err != nil {
		return nil, fmt.Errorf("select status log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []StatusEntry
	for rows.Next() {
		var status, recorded string
		if err := rows.Scan(&status, &recorded); err != nil {
			return nil, fmt.Errorf("scan status log: %w", err)
		}
		entry := StatusEntry{}
		if entry.Status, err = entities.ParseOrderStatus(status); err != nil {
			return nil, err
		}
		if entry.RecordedAt, err = parseTime(recorded); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (entities.OrderRecord, error) {
	var (
		id, productID, unitPrice, total, status, created, updated string
		quantity                                                  int64
	)
	if err := s.Scan(&id, &productID, &quantity, &unitPrice, &total, &status, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.OrderRecord{}, err
		}
		return entities.OrderRecord{}, fmt.Errorf("scan order: %w", err)
	}

	record := entities.OrderRecord{
		ID:        entities.OrderID(id),
		ProductID: entities.ProductID(productID),
		Quantity:  entities.Quantity(quantity),
	}
	var err error
	if record.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return entities.OrderRecord{}, fmt.Errorf("order %s unit price: %w", id, err)
	}
	if record.Total, err = decimal.NewFromString(total); err != nil {
		return entities.OrderRecord{}, fmt.Errorf("order %s total: %w", id, err)
	}
	if record.Status, err = entities.ParseOrderStatus(status); err != nil {
		return entities.OrderRecord{}, fmt.Errorf("order %s: %w", id, err)
	}
	if record.CreatedAt, err = parseTime(created); err != nil {
		return entities.OrderRecord{}, err
	}
	if record.UpdatedAt, err = parseTime(updated); err != nil {
		return entities.OrderRecord{}, err
	}
	return record, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
