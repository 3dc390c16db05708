package services

import (
	"errors"
	"log"
	"time"

	"github.com/takoucam/marketplace/models"
	"gorm.io/gorm"
)

// RecordDepositUsage bumps the running deposit totals for a provider.
// Best-effort dashboard data: failures are logged, never propagated, and it
// runs outside the payment transaction.
func RecordDepositUsage(db *gorm.DB, providerName string, amount float64) {
	if err := incrementUsage(db, providerName, amount, 0); err != nil {
		log.Printf("🔥 Failed to record deposit usage for %s: %v", providerName, err)
	}
}

// RecordWithdrawalUsage bumps the running payout totals for a provider.
func RecordWithdrawalUsage(db *gorm.DB, providerName string, amount float64) {
	if err := incrementUsage(db, providerName, 0, amount); err != nil {
		log.Printf("🔥 Failed to record withdrawal usage for %s: %v", providerName, err)
	}
}

func incrementUsage(db *gorm.DB, providerName string, depositAmount, withdrawalAmount float64) error {
	now := time.Now()

	var usage models.ProviderUsage
	err := db.Where("provider_name = ?", providerName).First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		usage = models.ProviderUsage{
			ProviderName:          providerName,
			TotalDepositAmount:    depositAmount,
			TotalWithdrawalAmount: withdrawalAmount,
			TotalTransactions:     1,
			LastUsedAt:            &now,
		}
		return db.Create(&usage).Error
	}
	if err != nil {
		return err
	}

	return db.Model(&usage).Updates(map[string]interface{}{
		"total_deposit_amount":    gorm.Expr("total_deposit_amount + ?", depositAmount),
		"total_withdrawal_amount": gorm.Expr("total_withdrawal_amount + ?", withdrawalAmount),
		"total_transactions":      gorm.Expr("total_transactions + 1"),
		"last_used_at":            now,
	}).Error
}
