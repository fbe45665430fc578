package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries all environment-derived settings, loaded once at startup
// and passed into handlers rather than read ad hoc.
type Config struct {
	OrdersTable        string
	ProductsTable      string
	AdminsTable        string
	LoginAttemptsTable string
	SessionsTable      string
	EmailLogTable      string

	MailQueueURL string
	ImageBucket  string
	MailFrom     string

	MidtransServerKey string
	MidtransProd      bool

	CourierBaseURL string
	CourierAPIKey  string
	OriginCityID   string

	CronSecret string

	ServiceFee          int64
	DefaultShippingCost int64

	RunLocal bool
}

// Load reads configuration from the environment. In local mode a .env file
// is loaded first if present (missing file is not an error).
func Load() (*Config, error) {
	runLocal := os.Getenv("RUN_LOCAL") == "true"
	if runLocal {
		_ = godotenv.Load(".env")
	}

	cfg := &Config{
		OrdersTable:        getenvDefault("ORDERS_TABLE", "storefront-orders"),
		ProductsTable:      getenvDefault("PRODUCTS_TABLE", "storefront-products"),
		AdminsTable:        getenvDefault("ADMINS_TABLE", "storefront-admins"),
		LoginAttemptsTable: getenvDefault("LOGIN_ATTEMPTS_TABLE", "storefront-login-attempts"),
		SessionsTable:      getenvDefault("SESSIONS_TABLE", "storefront-sessions"),
		EmailLogTable:      getenvDefault("EMAIL_LOG_TABLE", "storefront-email-log"),

		MailQueueURL: os.Getenv("MAIL_QUEUE_URL"),
		ImageBucket:  os.Getenv("IMAGE_BUCKET"),
		MailFrom:     getenvDefault("MAIL_FROM", "no-reply@dapursari.com"),

		MidtransServerKey: os.Getenv("MIDTRANS_SERVER_KEY"),
		MidtransProd:      os.Getenv("MIDTRANS_ENV") == "production",

		CourierBaseURL: os.Getenv("COURIER_BASE_URL"),
		CourierAPIKey:  os.Getenv("COURIER_API_KEY"),
		OriginCityID:   getenvDefault("ORIGIN_CITY_ID", "501"),

		CronSecret: os.Getenv("CRON_SECRET"),

		ServiceFee:          5000,
		DefaultShippingCost: 20000,

		RunLocal: runLocal,
	}

	var err error
	if cfg.ServiceFee, err = getenvInt64("SERVICE_FEE", cfg.ServiceFee); err != nil {
		return nil, err
	}
	if cfg.DefaultShippingCost, err = getenvInt64("DEFAULT_SHIPPING_COST", cfg.DefaultShippingCost); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
