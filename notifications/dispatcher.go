package notifications

import (
	"fmt"
	"log"

	"github.com/takoucam/marketplace/models"
)

// Payment milestone events. The reconciliation engine decides the kind, this
// package owns delivery; a delivery failure never reaches payment state.
const (
	KindFirstPayment   = "first_payment"
	KindRegularPayment = "regular_payment"
	KindFinalPayment   = "final_payment"
)

type PaymentEvent struct {
	Kind    string
	Order   models.Order
	Payment models.OrderPayment
	User    models.User
}

var paymentEvents = make(chan PaymentEvent, 256)

// Publish hands a payment event to the dispatcher. Fire-and-forget: when the
// queue is full the event is dropped with a log line rather than blocking the
// reconciliation path.
func Publish(kind string, order models.Order, payment models.OrderPayment, user models.User) {
	event := PaymentEvent{Kind: kind, Order: order, Payment: payment, User: user}

	select {
	case paymentEvents <- event:
	default:
		log.Printf("🔥 Payment event queue full, dropping %s event for order %d", kind, order.ID)
	}
}

// RunDispatcher consumes payment events and sends the matching email. Run it
// as a goroutine from main.
func RunDispatcher() {
	for event := range paymentEvents {
		dispatch(event)
	}
}

func dispatch(event PaymentEvent) {
	subject, body := composeEmail(event)

	log.Printf("Dispatching %s notification for order %d installment %d",
		event.Kind, event.Order.ID, event.Payment.InstallmentNumber)

	SendEmail(event.User.FullName, event.User.Email, subject, body)
}

func composeEmail(event PaymentEvent) (string, string) {
	switch event.Kind {
	case KindFirstPayment:
		return "Your Order is Confirmed!",
			fmt.Sprintf("<h1>Order Confirmed</h1><p>Your first installment of %.0f was received and order #%d is now confirmed. %d installments remain.</p>",
				event.Payment.AmountPaid, event.Order.ID, event.Order.RemainingInstallments)
	case KindFinalPayment:
		return "Your Order is Fully Paid!",
			fmt.Sprintf("<h1>Payment Complete</h1><p>The final installment for order #%d was received. The order is fully paid. Thank you!</p>",
				event.Order.ID)
	default:
		return "Installment Payment Received",
			fmt.Sprintf("<h1>Payment Received</h1><p>Installment %d of %d for order #%d was received. Remaining balance: %.0f.</p>",
				event.Payment.InstallmentNumber, event.Order.InstallmentCount, event.Order.ID, event.Order.RemainingAmount)
	}
}
