package database

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/config"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&entity.User{},
		&entity.Customer{},
		&entity.Product{},
		&entity.ExchangeRate{},

		// Transaction entities
		&entity.Sale{},
		&entity.SaleItem{},
		&entity.StockMovement{},
		&entity.CashMovement{},

		// System entities
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// SeedDefaultData creates the standard walk-in customer and, when configured,
// the admin operator. Existing rows are left untouched.
func SeedDefaultData(db *gorm.DB, admin config.AdminConfig) error {
	log.Println("Seeding default data...")

	var standard entity.Customer
	err := db.Where("is_standard = ?", true).First(&standard).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		standard = entity.Customer{Name: entity.StandardCustomerName, IsStandard: true}
		if err := db.Create(&standard).Error; err != nil {
			return fmt.Errorf("failed to create standard customer: %w", err)
		}
		log.Printf("Standard customer created: %s", standard.ID)
	default:
		return fmt.Errorf("failed to look up standard customer: %w", err)
	}

	if admin.Email == "" || admin.Password == "" {
		log.Println("Default data seeding completed")
		return nil
	}

	email := strings.ToLower(admin.Email)
	var existing entity.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Printf("Admin user already exists: %s", email)
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	name := admin.Name
	if name == "" {
		name = "Administrator"
	}
	user := entity.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     enum.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Printf("Admin user created: %s", email)

	log.Println("Default data seeding completed")
	return nil
}
