package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Gateway  GatewayConfig
	Auth     AuthConfig
	Booking  BookingConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GatewayConfig 外部金流服務設定
type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

// BookingConfig 預約政策設定
type BookingConfig struct {
	// 取消期限（小時）：距離開課時間不足此時數時禁止取消，0 表示不限制
	CancelNoticeHours int
	// 課卡預設效期（月）
	DefaultBookValidityMonths int
	// 金流 checkout 待處理紀錄的存活時間
	PendingCheckoutTTL time.Duration
}

var AppConfig *Config

func LoadConfig() *Config {
	AppConfig = &Config{
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		Gateway:  GetGatewayConfig(),
		Auth:     GetAuthConfig(),
		Booking:  GetBookingConfig(),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     "localhost",
		Port:     "5433", // 測試 DB 用 5433 port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	testRedisConfig := RedisConfig{
		Host:     "localhost",
		Port:     "6380", // 測試 Redis 用 6380 port
		Password: "",
		DB:       1,
	}

	return &Config{
		Database: *testConfig,
		Redis:    testRedisConfig,
		Gateway: GatewayConfig{
			BaseURL: "http://localhost:12111",
			APIKey:  "sk_test_local",
			Timeout: 2 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret: "test-secret",
		},
		Booking: BookingConfig{
			CancelNoticeHours:         24,
			DefaultBookValidityMonths: 12,
			PendingCheckoutTTL:        30 * time.Minute,
		},
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func GetGatewayConfig() GatewayConfig {
	return GatewayConfig{
		BaseURL: getEnv("GATEWAY_BASE_URL", "https://api.payment-gateway.local"),
		APIKey:  getEnv("GATEWAY_API_KEY", ""),
		Timeout: getEnvDuration("GATEWAY_TIMEOUT", 10*time.Second),
	}
}

func GetAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret: getEnv("JWT_SECRET", "change-me"),
	}
}

func GetBookingConfig() BookingConfig {
	return BookingConfig{
		CancelNoticeHours:         getEnvInt("CANCEL_NOTICE_HOURS", 24),
		DefaultBookValidityMonths: getEnvInt("BOOK_VALIDITY_MONTHS", 12),
		PendingCheckoutTTL:        getEnvDuration("PENDING_CHECKOUT_TTL", 30*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}
	return d
}
