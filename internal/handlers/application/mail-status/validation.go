// internal/handlers/application/mail-status/validation.go
package mailstatus

import (
	"strings"

	"biaw-integrations/internal/common/email"
	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/models"
)

type validated struct {
	memberID  string
	directive models.MailDirective
	status    models.CertificationStatus
}

// validateInput checks, in order, the member id, the mail directive and a
// certification status that has an email template.
func validateInput(input *Input) (*validated, error) {
	if input == nil {
		return nil, apperrors.NewValidationError("Member ID is required")
	}

	memberID := strings.TrimSpace(input.Fields.MemberID.String())
	if memberID == "" {
		return nil, apperrors.NewValidationError("Member ID is required")
	}

	if strings.TrimSpace(input.Fields.SendMailStatus.Name) == "" {
		return nil, apperrors.NewValidationError("Mail status is required")
	}

	status, err := models.ParseCertificationStatus(input.Fields.CertificationStatus())
	if err != nil || !email.HasStatusTemplate(status) {
		return nil, apperrors.NewValidationError("Valid certification status is required")
	}

	return &validated{
		memberID:  memberID,
		directive: models.ParseMailDirective(input.Fields.SendMailStatus.Name),
		status:    status,
	}, nil
}
