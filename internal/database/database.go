package database

import (
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/utils"
)

var db *gorm.DB

// Connect initializes the database connection and runs migrations.
// Production keeps GORM quiet except for slow queries and errors.
func Connect(dsn string, production bool) *gorm.DB {
	if db != nil {
		return db
	}
	log := logger.Named("database")

	if err := ensureDatabase(dsn); err != nil {
		log.Fatal("failed to ensure database", zap.Error(err))
	}

	level := gormlogger.Info
	if production {
		level = gormlogger.Warn
	}
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := conn.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Warn("failed to ensure uuid-ossp extension", zap.Error(err))
	}

	if err := Migrate(conn); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	db = conn
	return db
}

// DB exposes the initialized gorm.DB instance.
func DB() *gorm.DB {
	return db
}

// Migrate creates or updates every table the store uses.
func Migrate(conn *gorm.DB) error {
	migrations := []any{
		&models.User{},
		&models.Address{},
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.ProductSpecification{},
		&models.Cart{},
		&models.CartItem{},
		&models.Coupon{},
		&models.Order{},
		&models.OrderItem{},
		&models.GatewayPayment{},
		&models.PaymentOption{},
	}

	for _, migration := range migrations {
		if err := conn.AutoMigrate(migration); err != nil {
			return err
		}
	}

	return nil
}

// SeedAdmin creates the back-office account once. Empty credentials skip it.
func SeedAdmin(conn *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	var existing models.User
	err := conn.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := conn.Create(&admin).Error; err != nil {
		return err
	}
	logger.Named("database").Info("seeded admin account", zap.String("email", email))
	return nil
}

// SeedPaymentOptions makes sure the processed methods exist.
func SeedPaymentOptions(conn *gorm.DB) error {
	defaults := []models.PaymentOption{
		{Method: "razorpay", Name: "Pay online", Description: "UPI, cards, net banking and wallets via Razorpay", BrandColor: "#0C2451", DisplayOrder: 1, IsActive: true},
		{Method: "cod", Name: "Cash on delivery", Description: "Pay when your order arrives", DisplayOrder: 2, IsActive: true},
	}
	for i := range defaults {
		if err := conn.Where("method = ?", defaults[i].Method).FirstOrCreate(&defaults[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureDatabase(dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return nil
	}

	parsed.Path = "/postgres"
	masterDSN := parsed.String()

	sqlDB, err := sql.Open("postgres", masterDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}
