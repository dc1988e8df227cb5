// Package history persists deposit orders so past activity survives
// restarts. Records are kept indefinitely; the remote service stays
// authoritative for actual payment state.
package history

import (
	"context"

	"github.com/dmitrijs2005/paykeeper/internal/models"
)

// Repository describes the order history operations.
// Implementations are backed by a local SQLite database.
type Repository interface {
	// Add inserts an order record. Adding the same order id again is a
	// no-op, so retried submissions cannot duplicate history.
	Add(ctx context.Context, order *models.DepositOrder) error

	// SetStatus updates the stored status and, when non-empty, the payment
	// time of an order.
	SetStatus(ctx context.Context, orderID string, status models.OrderStatus, paymentTime string) error

	// ListByUser returns up to limit orders of one user, newest first.
	// limit <= 0 means no limit.
	ListByUser(ctx context.Context, username string, limit int) ([]models.DepositOrder, error)

	// Get returns one order by id, or common.ErrNotFound.
	Get(ctx context.Context, orderID string) (*models.DepositOrder, error)
}
