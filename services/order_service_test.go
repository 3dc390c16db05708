package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/payments"
	"github.com/takoucam/marketplace/utils"
	"gorm.io/gorm"
)

func TestCreateOrder(t *testing.T) {
	db := newTestDB(t)
	user := seedBuyer(t, db)
	_, product := seedSellerWithProduct(t, db, 10000)

	require.NoError(t, CreateFee(db, &models.Fee{
		Name: "Order fee", Type: models.FeeTypeOrder, Percentage: 5, IsActive: true,
	}))
	require.NoError(t, CreateFee(db, &models.Fee{
		Name: "Late penalty", Type: models.FeeTypePenalty, Percentage: 10, IsActive: true,
	}))

	order, err := CreateOrder(db, &user, CreateOrderInput{
		ProductID:        product.ID,
		Quantity:         2,
		InstallmentCount: 3,
		PaymentFrequency: models.FrequencyWeekly,
		ReminderType:     "email",
	})
	require.NoError(t, err)

	// 2 x 10000 product price, plus ceil(20000 * 5%) = 1000 order fee.
	assert.Equal(t, 21000.0, order.TotalCost)
	assert.Equal(t, 1000.0, order.Fees)
	assert.Equal(t, 21000.0, order.RemainingAmount)
	assert.Equal(t, 7000.0, order.InstallmentAmount)
	assert.Equal(t, 3, order.RemainingInstallments)
	assert.Equal(t, 10.0, order.PenaltyPercentage, "penalty percentage is snapshotted")
	assert.False(t, order.IsConfirmed)
	assert.False(t, order.IsCompleted)
	assert.Equal(t, product.SellerID, order.SellerID)

	var installmentCount int64
	require.NoError(t, db.Model(&models.OrderPayment{}).
		Where("order_id = ?", order.ID).Count(&installmentCount).Error)
	assert.EqualValues(t, 3, installmentCount)
}

func TestCreateOrderWithoutFeesConfigured(t *testing.T) {
	db := newTestDB(t)
	user := seedBuyer(t, db)
	_, product := seedSellerWithProduct(t, db, 10000)

	order, err := CreateOrder(db, &user, CreateOrderInput{
		ProductID:        product.ID,
		Quantity:         1,
		InstallmentCount: 2,
		PaymentFrequency: models.FrequencyMonthly,
		ReminderType:     "email",
	})
	require.NoError(t, err)

	assert.Equal(t, 10000.0, order.TotalCost, "no active fee means no surcharge")
	assert.Zero(t, order.Fees)
	assert.Zero(t, order.PenaltyPercentage)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	user := seedBuyer(t, db)

	_, err := CreateOrder(db, &user, CreateOrderInput{
		ProductID:        9999,
		Quantity:         1,
		InstallmentCount: 2,
		PaymentFrequency: models.FrequencyWeekly,
		ReminderType:     "email",
	})
	var notFound *utils.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCancelOrder(t *testing.T) {
	t.Run("unpaid order is removed with its installments", func(t *testing.T) {
		db := newTestDB(t)
		user := seedBuyer(t, db)
		order := seedOrder(t, db, user, 3, 30000)

		require.NoError(t, CancelOrder(db, &order))

		assert.ErrorIs(t, db.First(&models.Order{}, order.ID).Error, gorm.ErrRecordNotFound)

		var count int64
		require.NoError(t, db.Model(&models.OrderPayment{}).
			Where("order_id = ?", order.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("order with a successful payment cannot be cancelled", func(t *testing.T) {
		db := newTestDB(t)
		captureEvents(t)
		user := seedBuyer(t, db)
		order := seedOrder(t, db, user, 3, 30000)
		txn, _ := seedLinkedTransaction(t, db, order, 1, payments.StatusAccepted)
		require.NoError(t, ApplyTransactionStatus(db, &txn, payments.StatusCompleted))

		err := CancelOrder(db, &order)
		var conflict *utils.ConflictError
		require.ErrorAs(t, err, &conflict)

		assert.NoError(t, db.First(&models.Order{}, order.ID).Error, "the order survives")
	})
}
