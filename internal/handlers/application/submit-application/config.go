// internal/handlers/application/submit-application/config.go
package submitapplication

import "biaw-integrations/internal/common/config"

type Config struct {
	ApplicationsTable string
	ReferencesTable   string
	MaxReferences     int
	MaxBodyBytes      int64
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		ApplicationsTable: cfg.Airtable.Membership.ApplicationsTable,
		ReferencesTable:   cfg.Airtable.Membership.ReferencesTable,
		MaxReferences:     10,
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
	}
}
