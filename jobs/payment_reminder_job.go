package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/takoucam/marketplace/database"
	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/notifications"
)

// SendPaymentReminders notifies buyers whose next installment falls due
// within the next day. Only email reminders are delivered here; call and sms
// reminder types are recorded for the support team.
func SendPaymentReminders() {
	log.Println("Running job: SendPaymentReminders...")

	now := time.Now()
	upperBound := now.Add(24 * time.Hour)

	var duePayments []models.OrderPayment

	err := database.DB.
		Preload("Order.User").
		Preload("Order.Product").
		Joins("JOIN orders ON orders.id = order_payments.order_id").
		Where("order_payments.status = ? AND orders.is_completed = ? AND order_payments.due_date BETWEEN ? AND ?",
			models.PaymentStatusPending, false, now, upperBound).
		Find(&duePayments).Error
	if err != nil {
		log.Printf("Error checking for due payments: %v", err)
		return
	}

	if len(duePayments) == 0 {
		return
	}

	for _, payment := range duePayments {
		order := payment.Order

		if order.ReminderType != "email" {
			log.Printf("Reminder for order %d installment %d queued for %s follow-up",
				order.ID, payment.InstallmentNumber, order.ReminderType)
			continue
		}

		emailSubject := "Reminder: Your Installment is Due Soon"
		emailBody := fmt.Sprintf(
			"<h1>Payment Reminder</h1><p>Hi %s,</p><p>Installment %d of %d for your order of %s is due on %s. Amount due: %.0f.</p>",
			order.User.FullName,
			payment.InstallmentNumber,
			order.InstallmentCount,
			order.Product.Name,
			payment.DueDate.Format("2006-01-02"),
			payment.AmountPaid+payment.PenaltyFees,
		)

		go notifications.SendEmail(order.User.FullName, order.User.Email, emailSubject, emailBody)
	}
}
