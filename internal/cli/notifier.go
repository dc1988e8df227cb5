package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/paykeeper/internal/models"
)

// printNotifier reports order outcomes to the terminal. The tracker calls it
// from poll goroutines, so output can interleave with the prompt.
type printNotifier struct{}

func (printNotifier) OrderFinished(ctx context.Context, o *models.DepositOrder) {
	if o.Status == models.StatusSuccess {
		printlnFn(fmt.Sprintf("\nOrder %s paid (%d) at %s", o.OrderID, o.Amount, o.PaymentTime))
	} else {
		printlnFn(fmt.Sprintf("\nOrder %s failed", o.OrderID))
	}
}

func (printNotifier) OrderExpired(ctx context.Context, o *models.DepositOrder) {
	printlnFn(fmt.Sprintf("\nOrder %s expired without payment", o.OrderID))
}
