package config

import (
	"github.com/kelseyhightower/envconfig"
)

// App holds runtime configuration loaded from the environment.
type App struct {
	// Server
	AppHost     string `envconfig:"APP_HOST" default:"0.0.0.0"`
	AppPort     string `envconfig:"APP_PORT" default:"8080"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	// DB
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBDatabase string `envconfig:"DB_DATABASE" required:"true"`
	DBUsername string `envconfig:"DB_USERNAME" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// JWT
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpireMin int    `envconfig:"JWT_EXPIRE_MIN" default:"60"`

	// Payments (Omise)
	OmisePublicKey string `envconfig:"OMISE_PUBLIC_KEY"`
	OmiseSecretKey string `envconfig:"OMISE_SECRET_KEY"`
	CheckoutReturn string `envconfig:"CHECKOUT_RETURN_URL" default:"http://localhost:8080/api/payments/return"`
	Currency       string `envconfig:"CURRENCY" default:"nzd"`

	// Platform economics (basis points so the rates stay integral)
	PlatformFeeBps int `envconfig:"PLATFORM_FEE_BPS" default:"1000"`
	TaxRateBps     int `envconfig:"TAX_RATE_BPS" default:"1500"`

	// Payment return reconciliation
	ReconcilePollIntervalMs int `envconfig:"RECONCILE_POLL_INTERVAL_MS" default:"1200"`
	ReconcilePollCeilingMs  int `envconfig:"RECONCILE_POLL_CEILING_MS" default:"8000"`

	// Messaging
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"marketplace.events"`

	// KYC document extraction
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	// Secrets
	EncryptionKey string `envconfig:"ENCRYPTION_KEY"`
}

// Load processes the environment into an App config.
func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
