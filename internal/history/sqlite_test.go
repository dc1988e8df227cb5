package history

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/models"

	_ "modernc.org/sqlite"
)

// memoryDSN returns a per-test shared-cache in-memory database, so every
// pooled connection sees the same schema.
func memoryDSN(t *testing.T) string {
	t.Helper()
	return "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", memoryDSN(t))
	require.NoError(t, err)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE orders (
  order_id TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  amount INTEGER NOT NULL,
  status TEXT NOT NULL,
  payment_string TEXT NOT NULL DEFAULT '',
  create_time TEXT NOT NULL,
  payment_time TEXT NOT NULL DEFAULT ''
);

CREATE TABLE order_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  event_time TEXT NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func countEvents(t *testing.T, db *sql.DB, orderID string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM order_events WHERE order_id=?`, orderID).Scan(&n))
	return n
}

func testOrder(id, username string) *models.DepositOrder {
	return &models.DepositOrder{
		OrderID:       id,
		Username:      username,
		Amount:        25000,
		Status:        models.StatusPending,
		PaymentString: "000201qr...",
		CreatedAt:     time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestAdd_AndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, testOrder("ORD-1", "alice")))

	got, err := r.Get(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, int64(25000), got.Amount)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, "000201qr...", got.PaymentString)
	assert.Equal(t, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), got.CreatedAt)
}

func TestAdd_Idempotent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, testOrder("ORD-1", "alice")))

	dup := testOrder("ORD-1", "alice")
	dup.Amount = 99999
	require.NoError(t, r.Add(ctx, dup))

	got, err := r.Get(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, int64(25000), got.Amount, "second insert must not overwrite")

	var count int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM orders`).Scan(&count))
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, countEvents(t, db, "ORD-1"), "duplicate insert must not log a second event")
}

func TestGet_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.Get(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetStatus(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, testOrder("ORD-1", "alice")))

	require.NoError(t, r.SetStatus(ctx, "ORD-1", models.StatusSuccess, "2026-09-01 10:02:13"))

	got, err := r.Get(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, got.Status)
	assert.Equal(t, "2026-09-01 10:02:13", got.PaymentTime)

	// One event for the insert, one for the status change.
	assert.Equal(t, 2, countEvents(t, db, "ORD-1"))
}

func TestSetStatus_EmptyPaymentTimeKeepsOld(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	o := testOrder("ORD-1", "alice")
	o.PaymentTime = "2026-09-01 09:00:00"
	require.NoError(t, r.Add(ctx, o))

	require.NoError(t, r.SetStatus(ctx, "ORD-1", models.StatusFailed, ""))

	got, err := r.Get(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "2026-09-01 09:00:00", got.PaymentTime)
}

func TestSetStatus_UnknownOrder(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	err := r.SetStatus(context.Background(), "missing", models.StatusSuccess, "")
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Zero(t, countEvents(t, db, "missing"), "rolled back update must not leave an event")
}

func TestListByUser_NewestFirstAndLimit(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, testOrder("ORD-1", "alice")))
	require.NoError(t, r.Add(ctx, testOrder("ORD-2", "alice")))
	require.NoError(t, r.Add(ctx, testOrder("ORD-3", "bob")))
	require.NoError(t, r.Add(ctx, testOrder("ORD-4", "alice")))

	all, err := r.ListByUser(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ORD-4", all[0].OrderID)
	assert.Equal(t, "ORD-2", all[1].OrderID)
	assert.Equal(t, "ORD-1", all[2].OrderID)

	limited, err := r.ListByUser(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "ORD-4", limited[0].OrderID)
}

func TestOpen_RunsMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, memoryDSN(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r := NewSQLiteRepository(db)
	require.NoError(t, r.Add(ctx, testOrder("ORD-1", "alice")))

	got, err := r.Get(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", got.OrderID)
}
