// internal/handlers/application/certification-status/config.go
package certificationstatus

import "biaw-integrations/internal/common/config"

type Config struct {
	MembershipCollectionID string
	MaxBodyBytes           int64
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		MembershipCollectionID: cfg.Webflow.MembershipCollectionID,
		MaxBodyBytes:           cfg.Server.MaxBodyBytes,
	}
}
