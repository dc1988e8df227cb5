package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/paykeeper/internal/models"
)

func TestFormatOrderLine(t *testing.T) {
	created := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		order models.DepositOrder
		want  string
	}{
		{
			name: "pending order is marked in progress",
			order: models.DepositOrder{
				OrderID:   "ORD-1",
				Amount:    25000,
				Status:    models.StatusPending,
				CreatedAt: created,
			},
			want: "ORD-1  25000  Pending  created 2026-09-01 10:30:00  (in progress)",
		},
		{
			name: "settled order shows the payment time",
			order: models.DepositOrder{
				OrderID:     "ORD-2",
				Amount:      50000,
				Status:      models.StatusSuccess,
				CreatedAt:   created,
				PaymentTime: "2026-09-01 10:31:12",
			},
			want: "ORD-2  50000  Success  created 2026-09-01 10:30:00  paid 2026-09-01 10:31:12",
		},
		{
			name: "cancelled order carries no extras",
			order: models.DepositOrder{
				OrderID:   "ORD-3",
				Amount:    25000,
				Status:    models.StatusCancelled,
				CreatedAt: created,
			},
			want: "ORD-3  25000  Cancelled  created 2026-09-01 10:30:00",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatOrderLine(tc.order))
		})
	}
}
