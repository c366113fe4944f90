package main

import (
	"context"
	"fmt"
	"time"

	"biaw-integrations/internal/common/airtable"
	"biaw-integrations/internal/common/config"
	"biaw-integrations/internal/common/database"
	"biaw-integrations/internal/common/email"
	"biaw-integrations/internal/common/idempotency"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/observability"
	"biaw-integrations/internal/common/payments"
	"biaw-integrations/internal/common/retry"
	"biaw-integrations/internal/common/webflow"
	"biaw-integrations/internal/server"
)

// connectPolicy bounds startup retries against Redis.
var connectPolicy = retry.Policy{
	MaxAttempts:  5,
	InitialDelay: 2 * time.Second,
	MaxDelay:     30 * time.Second,
	Jitter:       0.1,
}

type app struct {
	deps  server.Dependencies
	redis *database.RedisClient
	obs   *observability.Observability
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	a := &app{}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("OpenTelemetry exporter unavailable, webhook metrics disabled", map[string]interface{}{"error": err})
	}
	a.obs = obs

	var store idempotency.Store = idempotency.NopStore{}
	if cfg.Redis.Enabled {
		err := retry.Do(ctx, connectPolicy, "Redis connection", func(ctx context.Context) error {
			var err error
			a.redis, err = database.NewRedis(ctx, cfg.Redis)
			return err
		}, func(attempt int, delay time.Duration, err error) {
			log.Warn("Redis connection failed, retrying", map[string]interface{}{
				"attempt":     attempt,
				"maxRetries":  connectPolicy.MaxAttempts,
				"nextRetryIn": delay.String(),
				"error":       err,
			})
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		store = idempotency.NewRedisStore(a.redis.GetClient(), config.GetDuration(cfg.Redis.KeyTTL))
		log.Info("Redis reconciliation store connected", map[string]interface{}{"address": cfg.Redis.Address})
	} else {
		log.Warn("Redis disabled, duplicate webhooks are guarded by table lookups only", nil)
	}

	sender, err := email.NewSenderFromConfig(ctx, cfg.Email)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("email sender: %w", err)
	}
	alerts, err := email.NewAlertPublisherFromConfig(ctx, cfg.Alerts)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("alert publisher: %w", err)
	}

	airtableTimeout := config.GetDuration(cfg.Airtable.Timeout)
	newBase := func(base config.AirtableBase) *airtable.Client {
		return airtable.NewClient(airtable.ClientOptions{
			APIKey:  base.APIKey,
			BaseID:  base.BaseID,
			BaseURL: cfg.Airtable.BaseURL,
			Timeout: airtableTimeout,
		})
	}

	a.deps = server.Dependencies{
		Membership:    newBase(cfg.Airtable.Membership.AirtableBase),
		Products:      newBase(cfg.Airtable.Product.AirtableBase),
		BoardMeetings: newBase(cfg.Airtable.BoardMeetings.AirtableBase),
		CMS: webflow.NewClient(webflow.ClientOptions{
			APIKey:  cfg.Webflow.APIKey,
			BaseURL: cfg.Webflow.BaseURL,
			Timeout: config.GetDuration(cfg.Webflow.Timeout),
		}),
		Gateway: payments.NewClient(payments.ClientOptions{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			Timeout:       config.GetDuration(cfg.Stripe.Timeout),
		}),
		Mailer: email.NewNotifier(email.NotifierOptions{
			Sender:  sender,
			Alerts:  alerts,
			Logger:  log,
			Timeout: config.GetDuration(cfg.Email.Timeout),
		}),
		Store:         store,
		Observability: obs,
	}
	return a, nil
}

// Ready reports whether Redis, when enabled, still answers.
func (a *app) Ready(ctx context.Context) error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Ping(ctx)
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.obs.Shutdown()
}
