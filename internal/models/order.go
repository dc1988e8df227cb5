// Package models holds the domain types shared between the order tracker,
// the history store and the CLI.
package models

import "time"

// OrderStatus is the lifecycle state of a deposit order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusSuccess   OrderStatus = "Success"
	StatusFailed    OrderStatus = "Failed"
	StatusCancelled OrderStatus = "Cancelled"
	StatusExpired   OrderStatus = "Expired"
)

// Terminal reports whether the status can never change again.
func (s OrderStatus) Terminal() bool {
	return s != StatusPending
}

// DepositOrder is one deposit order as tracked locally. The remote service
// remains authoritative for the actual payment state.
type DepositOrder struct {
	OrderID       string
	Username      string
	Amount        int64
	Status        OrderStatus
	PaymentString string
	CreatedAt     time.Time
	PaymentTime   string

	// PaymentDeadline is the remote "pay before" timestamp reported at
	// creation. Display only, not persisted.
	PaymentDeadline string
}
