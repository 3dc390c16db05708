package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/payments"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database and migrates the full schema.
// The pool is capped at one connection so concurrent test goroutines contend
// on our compare-and-swap guards instead of on SQLite file locks.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Seller{},
		&models.Product{},
		&models.Order{},
		&models.OrderPayment{},
		&models.MomoTransaction{},
		&models.Fee{},
		&models.ProviderUsage{},
		&models.PawapayWebhook{},
	))

	return db
}

func seedBuyer(t *testing.T, db *gorm.DB) models.User {
	t.Helper()

	user := models.User{
		FullName:    "Test Buyer",
		Email:       uuid.NewString() + "@example.com",
		Password:    "irrelevant",
		Role:        "buyer",
		PhoneNumber: "237677123456",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedSellerWithProduct(t *testing.T, db *gorm.DB, price float64) (models.Seller, models.Product) {
	t.Helper()

	owner := models.User{
		FullName: "Test Seller",
		Email:    uuid.NewString() + "@example.com",
		Password: "irrelevant",
		Role:     "seller",
	}
	require.NoError(t, db.Create(&owner).Error)

	seller := models.Seller{UserID: owner.ID, ShopName: "Test Shop"}
	require.NoError(t, db.Create(&seller).Error)

	product := models.Product{
		SellerID: seller.ID,
		Name:     "Test Product",
		Price:    price,
		Quantity: 10,
	}
	require.NoError(t, db.Create(&product).Error)

	return seller, product
}

// seedOrder creates an order with its installment plan the same way the
// order service does, bypassing fee lookup so tests control the numbers.
func seedOrder(t *testing.T, db *gorm.DB, user models.User, installmentCount int, totalCost float64) models.Order {
	t.Helper()

	seller, product := seedSellerWithProduct(t, db, totalCost)

	order := models.Order{
		UserID:                user.ID,
		SellerID:              seller.ID,
		ProductID:             product.ID,
		Quantity:              1,
		TotalCost:             totalCost,
		RemainingAmount:       totalCost,
		InstallmentAmount:     InstallmentAmount(totalCost, installmentCount),
		InstallmentCount:      installmentCount,
		RemainingInstallments: installmentCount,
		PaymentFrequency:      models.FrequencyWeekly,
		ReminderType:          "email",
		PenaltyPercentage:     10,
	}

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return BuildInstallments(tx, &order)
	}))

	return order
}

// seedLinkedTransaction creates a momo transaction with a provider id and
// links it to the given installment, mimicking a successful initiation.
func seedLinkedTransaction(t *testing.T, db *gorm.DB, order models.Order, installmentNumber int, status string) (models.MomoTransaction, models.OrderPayment) {
	t.Helper()

	var payment models.OrderPayment
	require.NoError(t, db.Where("order_id = ? AND installment_number = ?",
		order.ID, installmentNumber).First(&payment).Error)

	providerID := uuid.NewString()
	transaction := models.MomoTransaction{
		UserID:                order.UserID,
		OrderID:               &order.ID,
		Kind:                  models.TransactionKindDeposit,
		TransactionID:         "momo_" + uuid.NewString(),
		ProviderTransactionID: &providerID,
		PhoneNumber:           "237677123456",
		Amount:                payment.AmountPaid + payment.PenaltyFees,
		Status:                status,
		ProviderType:          payments.ProviderTypePawaPay,
	}
	require.NoError(t, db.Create(&transaction).Error)
	require.NoError(t, db.Model(&models.OrderPayment{}).
		Where("id = ?", payment.ID).
		Update("momo_transaction_id", transaction.ID).Error)

	payment.MomoTransactionID = &transaction.ID
	return transaction, payment
}

func timePtr(t time.Time) *time.Time { return &t }
