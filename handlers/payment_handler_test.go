package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takoucam/marketplace/database"
	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/payments"
	"github.com/takoucam/marketplace/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupWebhookApp(t *testing.T) *fiber.App {
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

	previousDB := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = previousDB })

	previousVerifier := webhookVerifier
	webhookVerifier = nil
	t.Cleanup(func() { webhookVerifier = previousVerifier })

	app := fiber.New()
	app.Post("/api/v1/payments/:eventType/webhook", HandlePawaPayWebhook)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, eventType, body string, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/payments/"+eventType+"/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// seedAcceptedDeposit creates a buyer, an order with two installments and an
// accepted transaction linked to the first one.
func seedAcceptedDeposit(t *testing.T) (models.MomoTransaction, models.Order) {
	t.Helper()
	db := database.DB

	user := models.User{
		FullName: "Webhook Buyer",
		Email:    uuid.NewString() + "@example.com",
		Password: "irrelevant",
		Role:     "buyer",
	}
	require.NoError(t, db.Create(&user).Error)

	owner := models.User{
		FullName: "Webhook Seller",
		Email:    uuid.NewString() + "@example.com",
		Password: "irrelevant",
		Role:     "seller",
	}
	require.NoError(t, db.Create(&owner).Error)
	seller := models.Seller{UserID: owner.ID, ShopName: "Webhook Shop"}
	require.NoError(t, db.Create(&seller).Error)
	product := models.Product{SellerID: seller.ID, Name: "Widget", Price: 20000, Quantity: 5}
	require.NoError(t, db.Create(&product).Error)

	order := models.Order{
		UserID:                user.ID,
		SellerID:              seller.ID,
		ProductID:             product.ID,
		Quantity:              1,
		TotalCost:             20000,
		RemainingAmount:       20000,
		InstallmentAmount:     10000,
		InstallmentCount:      2,
		RemainingInstallments: 2,
		PaymentFrequency:      models.FrequencyWeekly,
		ReminderType:          "email",
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return services.BuildInstallments(tx, &order)
	}))

	providerID := uuid.NewString()
	transaction := models.MomoTransaction{
		UserID:                user.ID,
		OrderID:               &order.ID,
		Kind:                  models.TransactionKindDeposit,
		TransactionID:         "momo_" + uuid.NewString(),
		ProviderTransactionID: &providerID,
		PhoneNumber:           "237677123456",
		Amount:                10000,
		Status:                payments.StatusAccepted,
		ProviderType:          payments.ProviderTypePawaPay,
	}
	require.NoError(t, db.Create(&transaction).Error)
	require.NoError(t, db.Model(&models.OrderPayment{}).
		Where("order_id = ? AND installment_number = ?", order.ID, 1).
		Update("momo_transaction_id", transaction.ID).Error)

	return transaction, order
}

func TestHandlePawaPayWebhook(t *testing.T) {
	t.Run("unknown event type", func(t *testing.T) {
		app := setupWebhookApp(t)
		resp := postWebhook(t, app, "chargeback", `{}`, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unparseable body", func(t *testing.T) {
		app := setupWebhookApp(t)
		resp := postWebhook(t, app, "deposit", `{not json`, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("payload without a transaction id", func(t *testing.T) {
		app := setupWebhookApp(t)
		resp := postWebhook(t, app, "deposit", `{"status":"COMPLETED"}`, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown transaction is acknowledged", func(t *testing.T) {
		app := setupWebhookApp(t)
		resp := postWebhook(t, app, "deposit",
			`{"depositId":"no-such-deposit","status":"COMPLETED","amount":"5000"}`, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var logCount int64
		require.NoError(t, database.DB.Model(&models.PawapayWebhook{}).Count(&logCount).Error)
		assert.EqualValues(t, 1, logCount)
	})

	t.Run("completed deposit confirms the order", func(t *testing.T) {
		app := setupWebhookApp(t)
		transaction, order := seedAcceptedDeposit(t)

		body := fmt.Sprintf(`{"depositId":%q,"status":"COMPLETED","amount":"10000"}`,
			*transaction.ProviderTransactionID)
		resp := postWebhook(t, app, "deposit", body, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var gotOrder models.Order
		require.NoError(t, database.DB.First(&gotOrder, order.ID).Error)
		assert.True(t, gotOrder.IsConfirmed)
		assert.Equal(t, 1, gotOrder.RemainingInstallments)
	})

	t.Run("signature is enforced when a secret is configured", func(t *testing.T) {
		app := setupWebhookApp(t)
		secret := "whsec_test"
		webhookVerifier = payments.NewSignatureService("", "", "", secret)

		body := `{"depositId":"dep-1","status":"COMPLETED"}`

		resp := postWebhook(t, app, "deposit", body, map[string]string{
			"X-PawaPay-Signature": "bogus",
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(body))
		resp = postWebhook(t, app, "deposit", body, map[string]string{
			"X-PawaPay-Signature": hex.EncodeToString(mac.Sum(nil)),
		})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
