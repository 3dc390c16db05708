package database

import (
	"fmt"
	"log"

	config "github.com/takoucam/marketplace/configs"
	"github.com/takoucam/marketplace/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Seller{},
		&models.Product{},
		&models.Fee{},
		&models.Order{},
		&models.MomoTransaction{},
		&models.OrderPayment{},
		&models.PawapayWebhook{},
		&models.ProviderUsage{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
		return
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
		return
	}

	adminUser := models.User{
		FullName: config.Config("ADMIN_FULL_NAME"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "admin",
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
		return
	}

	log.Println("✅ Admin user seeded successfully")
}

// SeedFees makes sure an active order fee and penalty fee exist so that new
// orders always resolve a percentage.
func SeedFees() {
	defaults := []models.Fee{
		{Name: "Standard order fee", Type: models.FeeTypeOrder, Percentage: 5, IsActive: true},
		{Name: "Standard late penalty", Type: models.FeeTypePenalty, Percentage: 10, IsActive: true},
	}

	for _, fee := range defaults {
		var count int64
		if err := DB.Model(&models.Fee{}).Where("type = ?", fee.Type).Count(&count).Error; err != nil {
			log.Fatalf("🔥 Failed to check for existing fees: %v", err)
			return
		}
		if count > 0 {
			continue
		}
		if err := DB.Create(&fee).Error; err != nil {
			log.Fatalf("🔥 Failed to seed fee %s: %v", fee.Name, err)
			return
		}
		log.Printf("✅ Seeded default %s fee (%.2f%%)", fee.Type, fee.Percentage)
	}
}
