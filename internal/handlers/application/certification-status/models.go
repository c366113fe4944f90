// internal/handlers/application/certification-status/models.go
package certificationstatus

import "biaw-integrations/internal/models"

type Input struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

type Fields struct {
	MemberID            models.FlexString  `json:"Member ID"`
	CertificationStatus models.SelectValue `json:"Certification Status"`
	Status              models.SelectValue `json:"Status"`
	StatusAlt           models.SelectValue `json:"Status "`
}

// RequestedStatus prefers the "Status " column, then "Status".
func (f Fields) RequestedStatus() string {
	if f.StatusAlt.Name != "" {
		return f.StatusAlt.Name
	}
	return f.Status.Name
}

type Output struct {
	Message       string `json:"message"`
	WebflowItemID string `json:"webflowItemId"`
	OldStatus     string `json:"oldStatus,omitempty"`
	NewStatus     string `json:"newStatus"`
}
