package config

type App struct {
	Port             string `env:"APP_PORT" default:"8080"`
	DatabaseURL      string `env:"DATABASE_URL,required"`
	JWTSecret        string `env:"JWT_SECRET,required"`
	PaymentAPIKey    string `env:"PAYMENT_API_KEY"`
	InvoiceAPIKey    string `env:"INVOICE_API_KEY"`
	PaymentCallback  string `env:"PAYMENT_CALLBACK_URL"`
	PaymentSuccess   string `env:"PAYMENT_SUCCESS_URL"`
	PaymentCancel    string `env:"PAYMENT_CANCEL_URL"`
	Env              string `env:"APP_ENV" default:"dev"`
	ReturnBufferDays int    `env:"RETURN_BUFFER_DAYS" default:"3"`
	AvailabilityTTL  int    `env:"AVAILABILITY_TTL_SECONDS" default:"120"`
	CatalogTTL       int    `env:"CATALOG_TTL_SECONDS" default:"1800"`
	RunMigrations    bool   `env:"RUN_MIGRATIONS" default:"true"`
}
