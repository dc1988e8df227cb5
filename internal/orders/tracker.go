// Package orders creates deposit orders and tracks each one to a terminal
// state by polling the remote payment service.
package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/api"
	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/history"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
	"github.com/dmitrijs2005/paykeeper/internal/models"
)

const paymentTimeLayout = "2006-01-02 15:04:05"

// Session is the slice of a user session the tracker needs. A poll task is
// bound to the session it was started with: switching the active user
// elsewhere must not redirect in-flight polling.
type Session interface {
	Username() string
	API() api.Client
	Reauthenticate(ctx context.Context) error
}

// Notifier receives terminal order outcomes. Each tracked order produces at
// most one call.
type Notifier interface {
	// OrderFinished reports a Success or Failed outcome.
	OrderFinished(ctx context.Context, order *models.DepositOrder)

	// OrderExpired reports that tracking gave up after the timeout.
	OrderExpired(ctx context.Context, order *models.DepositOrder)
}

// Config are the tracker's operating parameters.
type Config struct {
	MinAmount     int64
	DefaultMethod string
	PollInterval  time.Duration
	TrackTimeout  time.Duration
}

// Tracker submits deposit orders and polls them until they settle.
type Tracker struct {
	history  history.Repository
	active   *ActiveSet
	notifier Notifier
	log      logging.Logger
	cfg      Config

	wg sync.WaitGroup
}

func NewTracker(hist history.Repository, notifier Notifier, cfg Config, log logging.Logger) *Tracker {
	return &Tracker{
		history:  hist,
		active:   NewActiveSet(),
		notifier: notifier,
		log:      log,
		cfg:      cfg,
	}
}

// Active exposes the set of order ids still being polled.
func (t *Tracker) Active() *ActiveSet { return t.active }

// Submit creates a deposit order on the session's channel and records it as
// Pending. The caller decides whether to Track it.
func (t *Tracker) Submit(ctx context.Context, sess Session, amount int64) (*models.DepositOrder, error) {
	if amount < t.cfg.MinAmount {
		return nil, fmt.Errorf("amount %d (minimum %d): %w", amount, t.cfg.MinAmount, common.ErrAmountTooLow)
	}

	method, err := sess.API().PaymentMethodActive(ctx)
	if err != nil {
		t.log.Warn(ctx, "payment method probe failed, using default",
			"user", sess.Username(), "default", t.cfg.DefaultMethod, "error", err)
		method = t.cfg.DefaultMethod
	}

	creation, err := sess.API().CreateOrder(ctx, amount, method)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	order := &models.DepositOrder{
		OrderID:         creation.OrderID,
		Username:        sess.Username(),
		Amount:          amount,
		Status:          models.StatusPending,
		PaymentString:   creation.PaymentString,
		CreatedAt:       time.Now(),
		PaymentDeadline: creation.Timeout,
	}

	// The order already exists remotely, so a history failure is logged
	// rather than surfaced.
	if err := t.history.Add(ctx, order); err != nil {
		t.log.Warn(ctx, "record order", "order", order.OrderID, "error", err)
	}

	t.log.Info(ctx, "order created", "order", order.OrderID, "user", order.Username, "amount", amount, "method", method)
	return order, nil
}

// Track starts polling the order on its own goroutine, bound to sess.
func (t *Tracker) Track(ctx context.Context, sess Session, order *models.DepositOrder) {
	t.active.Add(order.OrderID)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.poll(ctx, sess, order)
	}()
}

// Cancel stops tracking an order and records it as Cancelled. Returns false
// when the order was not being tracked (already settled or never known), in
// which case nothing is written. Safe to call repeatedly.
func (t *Tracker) Cancel(ctx context.Context, orderID string) bool {
	if !t.active.Discard(orderID) {
		return false
	}
	if err := t.history.SetStatus(ctx, orderID, models.StatusCancelled, ""); err != nil {
		t.log.Warn(ctx, "record cancellation", "order", orderID, "error", err)
	}
	t.log.Info(ctx, "order cancelled", "order", orderID)
	return true
}

// Wait blocks until every poll goroutine has exited. For shutdown.
func (t *Tracker) Wait() { t.wg.Wait() }

func (t *Tracker) poll(ctx context.Context, sess Session, order *models.DepositOrder) {
	log := t.log.With("order", order.OrderID, "user", order.Username)

	// The deadline timer bounds total tracking time independently of tick
	// drift or slow requests.
	deadline := time.NewTimer(t.cfg.TrackTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "tracking stopped", "reason", ctx.Err())
			return

		case <-deadline.C:
			t.expire(ctx, order)
			return

		case <-ticker.C:
			if !t.active.Contains(order.OrderID) {
				// Cancelled from outside; the canceller owns the record.
				return
			}

			st, err := t.queryStatus(ctx, sess, order.OrderID)
			if err != nil {
				log.Warn(ctx, "status poll failed", "error", err)
				continue
			}

			switch st.Code {
			case 0:
				log.Debug(ctx, "order still pending")
			case 1:
				t.finish(ctx, order, models.StatusSuccess, st)
				return
			default:
				log.Warn(ctx, "order failed remotely", "code", st.Code)
				t.finish(ctx, order, models.StatusFailed, st)
				return
			}
		}
	}
}

// queryStatus polls once, allowing a single re-login and retry when the
// session is no longer accepted.
func (t *Tracker) queryStatus(ctx context.Context, sess Session, orderID string) (*api.OrderStatus, error) {
	st, err := sess.API().OrderStatus(ctx, orderID)
	if err == nil || !api.NeedsLogin(err) {
		return st, err
	}

	t.log.Info(ctx, "session rejected during poll, re-logging in", "user", sess.Username())
	if rerr := sess.Reauthenticate(ctx); rerr != nil {
		return nil, fmt.Errorf("re-login: %w", rerr)
	}
	return sess.API().OrderStatus(ctx, orderID)
}

// finish commits a Success/Failed outcome exactly once.
func (t *Tracker) finish(ctx context.Context, order *models.DepositOrder, status models.OrderStatus, st *api.OrderStatus) {
	if !t.active.Discard(order.OrderID) {
		// A concurrent Cancel won the commit.
		return
	}

	paymentTime := st.PaymentTime
	if status == models.StatusSuccess && paymentTime == "" {
		paymentTime = time.Now().UTC().Format(paymentTimeLayout)
	}

	order.Status = status
	order.PaymentTime = paymentTime

	if err := t.history.SetStatus(ctx, order.OrderID, status, paymentTime); err != nil {
		t.log.Warn(ctx, "record outcome", "order", order.OrderID, "error", err)
	}

	t.log.Info(ctx, "order settled",
		"order", order.OrderID, "status", string(status), "real_amount", st.RealAmount)
	t.notifier.OrderFinished(ctx, order)
}

// expire commits a timeout exactly once.
func (t *Tracker) expire(ctx context.Context, order *models.DepositOrder) {
	if !t.active.Discard(order.OrderID) {
		return
	}

	order.Status = models.StatusExpired

	if err := t.history.SetStatus(ctx, order.OrderID, models.StatusExpired, ""); err != nil {
		t.log.Warn(ctx, "record expiry", "order", order.OrderID, "error", err)
	}

	t.log.Warn(ctx, "order tracking timed out", "order", order.OrderID)
	t.notifier.OrderExpired(ctx, order)
}
