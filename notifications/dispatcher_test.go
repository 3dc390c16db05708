package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/takoucam/marketplace/models"
)

func TestComposeEmail(t *testing.T) {
	order := models.Order{ID: 42, InstallmentCount: 3, RemainingInstallments: 2, RemainingAmount: 20000}
	payment := models.OrderPayment{InstallmentNumber: 1, AmountPaid: 10000}

	t.Run("first payment", func(t *testing.T) {
		subject, body := composeEmail(PaymentEvent{Kind: KindFirstPayment, Order: order, Payment: payment})
		assert.Equal(t, "Your Order is Confirmed!", subject)
		assert.Contains(t, body, "order #42")
		assert.Contains(t, body, "2 installments remain")
	})

	t.Run("final payment", func(t *testing.T) {
		subject, body := composeEmail(PaymentEvent{Kind: KindFinalPayment, Order: order, Payment: payment})
		assert.Equal(t, "Your Order is Fully Paid!", subject)
		assert.Contains(t, body, "order #42")
	})

	t.Run("regular payment", func(t *testing.T) {
		subject, body := composeEmail(PaymentEvent{Kind: KindRegularPayment, Order: order, Payment: payment})
		assert.Equal(t, "Installment Payment Received", subject)
		assert.Contains(t, body, "Installment 1 of 3")
		assert.Contains(t, body, "20000")
	})
}

func TestPublishNeverBlocks(t *testing.T) {
	// Fill the queue well past its capacity; overflow must be dropped, not
	// block the caller.
	for i := 0; i < 300; i++ {
		Publish(KindRegularPayment, models.Order{ID: uint(i)}, models.OrderPayment{}, models.User{})
	}

	// Drain so other tests start from an empty queue.
	for {
		select {
		case <-paymentEvents:
		default:
			return
		}
	}
}
