// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables the deployment
// already provides.
var envBindings = map[string]string{
	"app.environment": "APP_ENVIRONMENT",

	"server.port":           "PORT",
	"server.allowed_origin": "CORS_ORIGIN",

	"stripe.secret_key":                 "STRIPE_SECRET_KEY",
	"stripe.webhook_secret":             "STRIPE_WEBHOOK_SECRET",
	"stripe.member_price_id":            "STRIPE_MEMBER_PRICE_ID",
	"stripe.non_member_price_id":        "STRIPE_NON_MEMBER_PRICE_ID",
	"stripe.product_one_time_price_id":  "STRIPE_PRODUCT_PRICE_ID",
	"stripe.product_recurring_price_id": "STRIPE_PRODUCT_RECURRING_PRICE_ID",
	"stripe.success_url":                "STRIPE_SUCCESS_URL",
	"stripe.cancel_url":                 "STRIPE_CANCEL_URL",

	"airtable.membership.api_key":            "AIRTABLE_API_KEYS",
	"airtable.membership.base_id":            "AIRTABLE_BASE_ID1",
	"airtable.membership.applications_table": "AIRTABLE_TABLE_NAMES",
	"airtable.membership.references_table":   "AIRTABLE_TABLE_NAMES2",
	"airtable.membership.payments_table":     "AIRTABLE_TABLE_NAMES3",
	"airtable.product.api_key":               "AIRTABLE_API_KEYS2",
	"airtable.product.base_id":               "AIRTABLE_BASE_ID2",
	"airtable.product.subscriptions_table":   "AIRTABLE_TABLE_NAMES4",
	"airtable.board_meetings.api_key":        "AIRTABLE_API_KEYS3",
	"airtable.board_meetings.base_id":        "AIRTABLE_BASE_ID3",
	"airtable.board_meetings.minutes_table":  "AIRTABLE_TABLE_NAMES5",

	"webflow.api_key":                      "WEBFLOW_API_KEY",
	"webflow.membership_collection_id":     "WEBFLOW_COLLECTION_ID",
	"webflow.product_collection_id":        "WEBFLOW_COLLECTION_ID1",
	"webflow.minutes_collection_id":        "WEBFLOW_COLLECTION_ID2",
	"webflow.board_meetings_collection_id": "WEBFLOW_COLLECTION_ID3",

	"email.provider":         "EMAIL_PROVIDER",
	"email.from":             "EMAIL_FROM",
	"email.smtp.username":    "EMAIL_USER",
	"email.smtp.password":    "EMAIL_PASSWORD",
	"email.ses.region":       "AWS_REGION",
	"email.sendgrid.api_key": "SENDGRID_API_KEY",

	"redis.enabled":  "REDIS_ENABLED",
	"redis.address":  "REDIS_ADDR",
	"redis.password": "REDIS_PASSWORD",

	"alerts.enabled":   "ALERTS_ENABLED",
	"alerts.region":    "AWS_REGION",
	"alerts.topic_arn": "ALERTS_SNS_TOPIC_ARN",

	"logging.level":  "LOG_LEVEL",
	"logging.format": "LOG_FORMAT",
}

// Load reads configs/config.yaml (optional), the environment-specific overlay
// and the process environment, then validates required settings.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found from the working directory upwards.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in YAML values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "biaw-integrations"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.AllowedOrigin == "" {
		cfg.Server.AllowedOrigin = "https://biaw-stage-api.webflow.io"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 90000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}

	// Stripe catalogue of the production deployment
	if cfg.Stripe.Timeout == 0 {
		cfg.Stripe.Timeout = 20000
	}
	if cfg.Stripe.MemberPriceID == "" {
		cfg.Stripe.MemberPriceID = "price_1RREVXE1AF8nzqTak1J7SXc5"
	}
	if cfg.Stripe.NonMemberPriceID == "" {
		cfg.Stripe.NonMemberPriceID = "price_1RREVvE1AF8nzqTaKgRfO8HK"
	}
	if cfg.Stripe.ProductOneTimePriceID == "" {
		cfg.Stripe.ProductOneTimePriceID = "price_1RT5SlE1AF8nzqTaxgpkOfgc"
	}
	if cfg.Stripe.ProductRecurringPriceID == "" {
		cfg.Stripe.ProductRecurringPriceID = "price_1RT5TFE1AF8nzqTaLXGgdV22"
	}
	if cfg.Stripe.SuccessURL == "" {
		cfg.Stripe.SuccessURL = "https://biaw-stage-api.webflow.io/thank-you"
	}
	if cfg.Stripe.CancelURL == "" {
		cfg.Stripe.CancelURL = "https://biaw-stage-api.webflow.io/payment-declined"
	}

	if cfg.Airtable.BaseURL == "" {
		cfg.Airtable.BaseURL = "https://api.airtable.com/v0"
	}
	if cfg.Airtable.Timeout == 0 {
		cfg.Airtable.Timeout = 15000
	}

	if cfg.Webflow.BaseURL == "" {
		cfg.Webflow.BaseURL = "https://api.webflow.com/v2"
	}
	if cfg.Webflow.Timeout == 0 {
		cfg.Webflow.Timeout = 15000
	}

	if cfg.Email.Provider == "" {
		cfg.Email.Provider = "smtp"
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = "BIAW Support"
	}
	if cfg.Email.Timeout == 0 {
		cfg.Email.Timeout = 30000
	}
	if cfg.Email.SMTP.Host == "" {
		cfg.Email.SMTP.Host = "smtp.gmail.com"
	}
	if cfg.Email.SMTP.Port == 0 {
		cfg.Email.SMTP.Port = 587
	}

	if cfg.Redis.KeyTTL == 0 {
		cfg.Redis.KeyTTL = int((72 * time.Hour).Milliseconds())
	}

	if cfg.Reconciliation.MaxAttempts == 0 {
		cfg.Reconciliation.MaxAttempts = 4
	}
	if cfg.Reconciliation.InitialDelay == 0 {
		cfg.Reconciliation.InitialDelay = 1000
	}
	if cfg.Reconciliation.MaxDelay == 0 {
		cfg.Reconciliation.MaxDelay = 8000
	}
	if cfg.Reconciliation.Jitter == 0 {
		cfg.Reconciliation.Jitter = 0.2
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig checks every required setting and reports all that are missing.
// Secrets and external identifiers have no defaults.
func validateConfig(cfg *Config) error {
	required := map[string]string{
		"STRIPE_SECRET_KEY":      cfg.Stripe.SecretKey,
		"STRIPE_WEBHOOK_SECRET":  cfg.Stripe.WebhookSecret,
		"AIRTABLE_API_KEYS":      cfg.Airtable.Membership.APIKey,
		"AIRTABLE_BASE_ID1":      cfg.Airtable.Membership.BaseID,
		"AIRTABLE_TABLE_NAMES":   cfg.Airtable.Membership.ApplicationsTable,
		"AIRTABLE_TABLE_NAMES2":  cfg.Airtable.Membership.ReferencesTable,
		"AIRTABLE_TABLE_NAMES3":  cfg.Airtable.Membership.PaymentsTable,
		"AIRTABLE_API_KEYS2":     cfg.Airtable.Product.APIKey,
		"AIRTABLE_BASE_ID2":      cfg.Airtable.Product.BaseID,
		"AIRTABLE_TABLE_NAMES4":  cfg.Airtable.Product.SubscriptionsTable,
		"AIRTABLE_API_KEYS3":     cfg.Airtable.BoardMeetings.APIKey,
		"AIRTABLE_BASE_ID3":      cfg.Airtable.BoardMeetings.BaseID,
		"AIRTABLE_TABLE_NAMES5":  cfg.Airtable.BoardMeetings.MinutesTable,
		"WEBFLOW_API_KEY":        cfg.Webflow.APIKey,
		"WEBFLOW_COLLECTION_ID":  cfg.Webflow.MembershipCollectionID,
		"WEBFLOW_COLLECTION_ID1": cfg.Webflow.ProductCollectionID,
		"WEBFLOW_COLLECTION_ID2": cfg.Webflow.MinutesCollectionID,
		"WEBFLOW_COLLECTION_ID3": cfg.Webflow.BoardMeetingsCollectionID,
	}

	switch cfg.Email.Provider {
	case "smtp":
		required["EMAIL_USER"] = cfg.Email.SMTP.Username
		required["EMAIL_PASSWORD"] = cfg.Email.SMTP.Password
	case "ses":
		required["EMAIL_FROM"] = cfg.Email.From
		required["AWS_REGION"] = cfg.Email.SES.Region
	case "sendgrid":
		required["EMAIL_FROM"] = cfg.Email.From
		required["SENDGRID_API_KEY"] = cfg.Email.SendGrid.APIKey
	default:
		return fmt.Errorf("email.provider %q is not supported (smtp, ses, sendgrid)", cfg.Email.Provider)
	}

	if cfg.Redis.Enabled {
		required["REDIS_ADDR"] = cfg.Redis.Address
	}
	if cfg.Alerts.Enabled {
		required["ALERTS_SNS_TOPIC_ARN"] = cfg.Alerts.TopicARN
		required["AWS_REGION"] = cfg.Alerts.Region
	}

	var missing []string
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	if cfg.Reconciliation.MaxAttempts < 0 {
		return fmt.Errorf("reconciliation.max_attempts must not be negative")
	}
	if cfg.Reconciliation.Jitter < 0 || cfg.Reconciliation.Jitter > 1 {
		return fmt.Errorf("reconciliation.jitter must be between 0 and 1")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
