package config

import (
	"log"
	"os"

	"narya-api/models"

	"github.com/glebarez/sqlite"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Logger is the process-wide structured logger
var Logger *zap.Logger

// Redis caches hot catalog reads; nil when REDIS_ADDR is unset
var Redis *redis.Client

// JWTSecret used to sign tokens, read from env or fallback
var JWTSecret = []byte(GetEnv("JWT_SECRET", "narya_baby_super_secret_2024"))

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitLogger() {
	var err error
	if os.Getenv("GIN_MODE") == "release" {
		Logger, err = zap.NewProduction()
	} else {
		Logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
}

func InitDB() {
	var err error
	DB, err = gorm.Open(sqlite.Open(GetEnv("DB_PATH", "narya_baby.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.SubCategory{},
		&models.Product{},
		&models.Review{},
		&models.GeneralReview{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderLog{},
		&models.PushSubscription{},
		&models.BlogPost{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	Logger.Info("database connected and migrated")
}

func InitRedis() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		Logger.Info("REDIS_ADDR not set, catalog cache disabled")
		return
	}
	Redis = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	Logger.Info("redis catalog cache enabled", zap.String("addr", addr))
}
