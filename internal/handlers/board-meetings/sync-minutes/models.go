// internal/handlers/board-meetings/sync-minutes/models.go
package syncminutes

import (
	"bytes"
	"encoding/json"

	"biaw-integrations/internal/common/webflow"
	"biaw-integrations/internal/models"
)

// Input is the minutes row sent by the Airtable automation.
type Input struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

type Fields struct {
	WebflowID           string              `json:"Webflow ID"`
	RelatedBoardMeeting models.SelectValue  `json:"Related Board meeting"`
	Agenda              []models.Attachment `json:"Agenda"`
	Minutes             []models.Attachment `json:"Minutes"`
	Status              models.SelectValue  `json:"Status"`
	CouncilName         StringList          `json:"Council Name"`
	Year                models.FlexString   `json:"Year"`
}

// Council returns the first council name, or "".
func (f Fields) Council() string {
	if len(f.CouncilName) == 0 {
		return ""
	}
	return f.CouncilName[0]
}

// StringList is a lookup cell: an array of strings, or a single string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// fileRef is the CMS file field value.
type fileRef struct {
	URL string      `json:"url"`
	Alt interface{} `json:"alt"`
}

// Output mirrors the body the automation expects.
type Output struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    *webflow.Item `json:"data"`
}
