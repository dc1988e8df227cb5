package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/dbx"
	"github.com/dmitrijs2005/paykeeper/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// SQLiteRepository implements Repository over a local SQLite database.
// Writes that touch both the orders table and the event log run inside a
// transaction.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Add inserts an order together with its initial status event. A conflicting
// order id leaves the existing row (and log) alone.
func (r *SQLiteRepository) Add(ctx context.Context, o *models.DepositOrder) error {
	createTime := o.CreatedAt.UTC().Format(timeLayout)

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `INSERT INTO orders (order_id, username, amount, status, payment_string, create_time, payment_time)
				values (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(order_id) DO NOTHING
		`
		res, err := tx.ExecContext(ctx, query,
			o.OrderID, o.Username, o.Amount, string(o.Status), o.PaymentString, createTime, o.PaymentTime)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		ra, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if ra == 0 {
			// Duplicate submission, nothing to log.
			return nil
		}

		return addEvent(ctx, tx, o.OrderID, o.Status)
	})
}

// SetStatus updates an order's status (and payment time when provided) and
// appends a status event, atomically.
func (r *SQLiteRepository) SetStatus(ctx context.Context, orderID string, status models.OrderStatus, paymentTime string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `update orders set status=?, payment_time=CASE WHEN ?='' THEN payment_time ELSE ? END where order_id=?`
		res, err := tx.ExecContext(ctx, query, string(status), paymentTime, paymentTime, orderID)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		ra, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if ra != 1 {
			return fmt.Errorf("order %s: %w", orderID, common.ErrNotFound)
		}

		return addEvent(ctx, tx, orderID, status)
	})
}

func addEvent(ctx context.Context, tx dbx.DBTX, orderID string, status models.OrderStatus) error {
	query := `INSERT INTO order_events (order_id, status, event_time) values (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, orderID, string(status), time.Now().UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("failed to log order event: %w", err)
	}
	return nil
}

// ListByUser returns one user's orders, newest first.
func (r *SQLiteRepository) ListByUser(ctx context.Context, username string, limit int) ([]models.DepositOrder, error) {
	query := `select order_id, username, amount, status, payment_string, create_time, payment_time
		from orders where username=? order by rowid desc`
	args := []any{username}
	if limit > 0 {
		query += ` limit ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	defer rows.Close()

	var result []models.DepositOrder
	for rows.Next() {
		item, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns a single order by id.
func (r *SQLiteRepository) Get(ctx context.Context, orderID string) (*models.DepositOrder, error) {
	query := `select order_id, username, amount, status, payment_string, create_time, payment_time
		from orders where order_id=?`
	row := r.db.QueryRowContext(ctx, query, orderID)

	o, err := scanOrder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", orderID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return o, nil
}

func scanOrder(scan func(dest ...any) error) (*models.DepositOrder, error) {
	var (
		o          models.DepositOrder
		status     string
		createTime string
	)
	if err := scan(&o.OrderID, &o.Username, &o.Amount, &status, &o.PaymentString, &createTime, &o.PaymentTime); err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)

	created, err := time.Parse(timeLayout, createTime)
	if err != nil {
		return nil, fmt.Errorf("parse create_time %q: %w", createTime, err)
	}
	o.CreatedAt = created

	return &o, nil
}
