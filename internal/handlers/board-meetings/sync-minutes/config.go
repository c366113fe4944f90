// internal/handlers/board-meetings/sync-minutes/config.go
package syncminutes

import "biaw-integrations/internal/common/config"

type Config struct {
	MinutesTable              string
	MinutesCollectionID       string
	BoardMeetingsCollectionID string
	MaxBodyBytes              int64
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		MinutesTable:              cfg.Airtable.BoardMeetings.MinutesTable,
		MinutesCollectionID:       cfg.Webflow.MinutesCollectionID,
		BoardMeetingsCollectionID: cfg.Webflow.BoardMeetingsCollectionID,
		MaxBodyBytes:              cfg.Server.MaxBodyBytes,
	}
}
