package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB    int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB     int    `mapstructure:"REDIS_AUTH_DB"`
	RedisTaskDB     int    `mapstructure:"REDIS_TASK_DB"`
	CheckoutHintTTL int    `mapstructure:"CHECKOUT_HINT_TTL_MIN"`

	// Payment gateway.
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	PaymentCurrency     string `mapstructure:"PAYMENT_CURRENCY"`
	CheckoutBaseURL     string `mapstructure:"CHECKOUT_BASE_URL"`

	// Transactional email (SMTP).
	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort string `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`

	// Cloudinary (profile photos).
	CloudinaryURL string `mapstructure:"CLOUDINARY_URL"`
}

// FirebaseServiceAccountKeyPath points at the FCM service account file.
const FirebaseServiceAccountKeyPath = "./config/firebase-service-account.json"

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_TASK_DB", 2)
	viper.SetDefault("CHECKOUT_HINT_TTL_MIN", 30)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "servana")
	viper.SetDefault("PAYMENT_CURRENCY", "usd")
	viper.SetDefault("CHECKOUT_BASE_URL", "http://localhost:3000")
	viper.SetDefault("SMTP_PORT", "587")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
