// internal/handlers/application/certification-status/validation.go
package certificationstatus

import (
	"strings"

	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/models"
)

const msgInvalidStatus = "Valid Status is required (Submitted, Under Process, Certified, or Rejected)"

func memberID(input *Input) (string, error) {
	if input == nil {
		return "", apperrors.NewValidationError("Member ID is required to update Webflow item")
	}
	id := strings.TrimSpace(input.Fields.MemberID.String())
	if id == "" {
		return "", apperrors.NewValidationError("Member ID is required to update Webflow item")
	}
	return id, nil
}

// parseStatus returns fallback when raw is empty.
func parseStatus(raw string, fallback models.CertificationStatus) (models.CertificationStatus, error) {
	if strings.TrimSpace(raw) == "" {
		if fallback != "" {
			return fallback, nil
		}
		return "", apperrors.NewValidationError(msgInvalidStatus)
	}
	status, err := models.ParseCertificationStatus(raw)
	if err != nil {
		return "", apperrors.NewValidationError(msgInvalidStatus)
	}
	return status, nil
}
