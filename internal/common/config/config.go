// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App            AppConfig            `mapstructure:"app"`
	Server         ServerConfig         `mapstructure:"server"`
	Stripe         StripeConfig         `mapstructure:"stripe"`
	Airtable       AirtableConfig       `mapstructure:"airtable"`
	Webflow        WebflowConfig        `mapstructure:"webflow"`
	Email          EmailConfig          `mapstructure:"email"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Alerts         AlertsConfig         `mapstructure:"alerts"`
	Logging        LoggingConfig        `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	AllowedOrigin   string `mapstructure:"allowed_origin"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes"`
}

// --- Payments ---

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds

	MemberPriceID           string `mapstructure:"member_price_id"`
	NonMemberPriceID        string `mapstructure:"non_member_price_id"`
	ProductOneTimePriceID   string `mapstructure:"product_one_time_price_id"`
	ProductRecurringPriceID string `mapstructure:"product_recurring_price_id"`

	SuccessURL string `mapstructure:"success_url"`
	CancelURL  string `mapstructure:"cancel_url"`
}

// --- Relational tables ---

// AirtableBase is one set of credentials. The deployment uses a separate key per base.
type AirtableBase struct {
	APIKey string `mapstructure:"api_key"`
	BaseID string `mapstructure:"base_id"`
}

type AirtableConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds

	Membership struct {
		AirtableBase      `mapstructure:",squash"`
		ApplicationsTable string `mapstructure:"applications_table"`
		ReferencesTable   string `mapstructure:"references_table"`
		PaymentsTable     string `mapstructure:"payments_table"`
	} `mapstructure:"membership"`

	Product struct {
		AirtableBase       `mapstructure:",squash"`
		SubscriptionsTable string `mapstructure:"subscriptions_table"`
	} `mapstructure:"product"`

	BoardMeetings struct {
		AirtableBase `mapstructure:",squash"`
		MinutesTable string `mapstructure:"minutes_table"`
	} `mapstructure:"board_meetings"`
}

// --- CMS ---

type WebflowConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds

	MembershipCollectionID    string `mapstructure:"membership_collection_id"`
	ProductCollectionID       string `mapstructure:"product_collection_id"`
	MinutesCollectionID       string `mapstructure:"minutes_collection_id"`
	BoardMeetingsCollectionID string `mapstructure:"board_meetings_collection_id"`
}

// --- Notifications ---

type EmailConfig struct {
	Provider string `mapstructure:"provider"` // smtp | ses | sendgrid
	FromName string `mapstructure:"from_name"`
	From     string `mapstructure:"from"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"smtp"`

	SES struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"ses"`

	SendGrid struct {
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"sendgrid"`
}

// Sender returns the configured from address, falling back to the SMTP login.
func (e EmailConfig) Sender() string {
	if e.From != "" {
		return e.From
	}
	return e.SMTP.Username
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	KeyTTL   int    `mapstructure:"key_ttl"` // milliseconds
}

// ReconciliationConfig tunes how checkout-completed waits for the invoice-paid path.
type ReconciliationConfig struct {
	MaxAttempts  int     `mapstructure:"max_attempts"`
	InitialDelay int     `mapstructure:"initial_delay"` // milliseconds
	MaxDelay     int     `mapstructure:"max_delay"`     // milliseconds
	Jitter       float64 `mapstructure:"jitter"`
}

type AlertsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
