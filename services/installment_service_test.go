package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/utils"
)

func TestInstallmentAmount(t *testing.T) {
	assert.Equal(t, 10000.0, InstallmentAmount(30000, 3))
	assert.Equal(t, 3334.0, InstallmentAmount(10000, 3), "ceiling, never floor")
	assert.Equal(t, 1.0, InstallmentAmount(1, 5))
	assert.Equal(t, 10000.0, InstallmentAmount(10000, 1))
}

func TestInstallmentSumNeverUnderpays(t *testing.T) {
	// The rounding contract: N * ceil(total/N) covers the total and
	// overshoots by at most N-1 currency units.
	cases := []struct {
		total float64
		count int
	}{
		{10000, 3},
		{9999, 7},
		{1, 12},
		{123457, 11},
		{50000, 4},
	}

	for _, c := range cases {
		amount := InstallmentAmount(c.total, c.count)
		sum := amount * float64(c.count)
		assert.GreaterOrEqual(t, sum, c.total, "total=%v count=%d", c.total, c.count)
		assert.Less(t, sum-c.total, float64(c.count), "total=%v count=%d", c.total, c.count)
	}
}

func TestBuildInstallments(t *testing.T) {
	db := newTestDB(t)
	user := seedBuyer(t, db)
	seller, product := seedSellerWithProduct(t, db, 10000)

	order := models.Order{
		UserID:                user.ID,
		SellerID:              seller.ID,
		ProductID:             product.ID,
		Quantity:              1,
		TotalCost:             10000,
		RemainingAmount:       10000,
		InstallmentAmount:     InstallmentAmount(10000, 3),
		InstallmentCount:      3,
		RemainingInstallments: 3,
		PaymentFrequency:      models.FrequencyWeekly,
		ReminderType:          "email",
	}
	require.NoError(t, db.Create(&order).Error)
	require.NoError(t, BuildInstallments(db, &order))

	var installments []models.OrderPayment
	require.NoError(t, db.Where("order_id = ?", order.ID).
		Order("installment_number asc").Find(&installments).Error)
	require.Len(t, installments, 3)

	for i, p := range installments {
		assert.Equal(t, i+1, p.InstallmentNumber)
		assert.Equal(t, 3334.0, p.AmountPaid)
		assert.Equal(t, models.PaymentStatusPending, p.Status)
		assert.Zero(t, p.PenaltyFees)
		assert.False(t, p.IsLate)
		require.NotNil(t, p.DueDate)
	}

	// Weekly frequency spaces the due dates seven days apart, starting one
	// period from now.
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), *installments[0].DueDate, time.Minute)
	for i := 1; i < len(installments); i++ {
		want := installments[i-1].DueDate.AddDate(0, 0, 7)
		assert.WithinDuration(t, want, *installments[i].DueDate, time.Second)
	}
}

func TestBuildInstallmentsRejectsZeroCount(t *testing.T) {
	db := newTestDB(t)

	order := models.Order{InstallmentCount: 0}
	err := BuildInstallments(db, &order)
	var validation *utils.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestAdvanceDueDate(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, base.AddDate(0, 0, 1), advanceDueDate(base, models.FrequencyDaily))
	assert.Equal(t, base.AddDate(0, 0, 7), advanceDueDate(base, models.FrequencyWeekly))
	assert.Equal(t, base.AddDate(0, 1, 0), advanceDueDate(base, models.FrequencyMonthly))
	assert.Equal(t, base.AddDate(0, 0, 1), advanceDueDate(base, "unknown"), "unknown frequency behaves as daily")
}
