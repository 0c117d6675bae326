package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func Load() App {
	// best effort; env vars win over .env
	_ = godotenv.Load()

	cfg := App{
		Port:             getenv("APP_PORT", "8080"),
		DatabaseURL:      must("DATABASE_URL"),
		JWTSecret:        getenv("JWT_SECRET", "local_dev_secret"),
		PaymentAPIKey:    os.Getenv("PAYMENT_API_KEY"),
		InvoiceAPIKey:    os.Getenv("INVOICE_API_KEY"),
		PaymentCallback:  os.Getenv("PAYMENT_CALLBACK_URL"),
		PaymentSuccess:   os.Getenv("PAYMENT_SUCCESS_URL"),
		PaymentCancel:    os.Getenv("PAYMENT_CANCEL_URL"),
		Env:              getenv("APP_ENV", "dev"),
		ReturnBufferDays: getint("RETURN_BUFFER_DAYS", 3),
		AvailabilityTTL:  getint("AVAILABILITY_TTL_SECONDS", 120),
		CatalogTTL:       getint("CATALOG_TTL_SECONDS", 1800),
		RunMigrations:    getbool("RUN_MIGRATIONS", true),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
