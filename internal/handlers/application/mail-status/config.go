// internal/handlers/application/mail-status/config.go
package mailstatus

import "biaw-integrations/internal/common/config"

type Config struct {
	ApplicationsTable      string
	MembershipCollectionID string
	MaxBodyBytes           int64
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		ApplicationsTable:      cfg.Airtable.Membership.ApplicationsTable,
		MembershipCollectionID: cfg.Webflow.MembershipCollectionID,
		MaxBodyBytes:           cfg.Server.MaxBodyBytes,
	}
}
