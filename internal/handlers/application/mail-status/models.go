// internal/handlers/application/mail-status/models.go
package mailstatus

import "biaw-integrations/internal/models"

// Input is the row payload sent by the applications table automation.
type Input struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

type Fields struct {
	MemberID       models.FlexString  `json:"Member ID"`
	SendMailStatus models.SelectValue `json:"Send Mail Status"`
	Status         models.SelectValue `json:"Status"`
	StatusAlt      models.SelectValue `json:"Status "`
	FirstName      string             `json:"First Name"`
	LastName       string             `json:"Last Name"`
	Email          string             `json:"Email"`
}

// CertificationStatus reads "Status", falling back to the "Status " column
// some bases carry with a trailing space.
func (f Fields) CertificationStatus() string {
	if f.Status.Name != "" {
		return f.Status.Name
	}
	return f.StatusAlt.Name
}

type Output struct {
	Message       string         `json:"message"`
	EmailSent     bool           `json:"emailSent"`
	Status        string         `json:"status,omitempty"`
	Skipped       bool           `json:"skipped,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	WebflowUpdate *WebflowUpdate `json:"webflowUpdate,omitempty"`
}

type WebflowUpdate struct {
	WebflowItemID string `json:"webflowItemId"`
	OldStatus     string `json:"oldStatus"`
	NewStatus     string `json:"newStatus"`
	Skipped       bool   `json:"skipped"`
	Reason        string `json:"reason,omitempty"`
}
