// internal/handlers/application/submit-application/validation.go
package submitapplication

import (
	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/common/validation"
)

const msgMissingNames = "First Name, Last Name, and Email (Business Name) are required."

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["Builder-First-Name", "Builder-Last-Name", "Builder-Business-Name"],
  "properties": {
    "Builder-First-Name":    {"type": "string", "minLength": 1},
    "Builder-Last-Name":     {"type": "string", "minLength": 1},
    "Builder-Business-Name": {"type": "string", "minLength": 1}
  }
}`)

func validateInput(input Input) error {
	if input == nil {
		return apperrors.NewValidationError(msgMissingNames)
	}
	result := inputSchema.Validate(map[string]interface{}(input))
	if !result.Valid {
		stdErr := apperrors.NewValidationError(msgMissingNames)
		return stdErr.WithMetadata("fields", result.GetErrorMessages())
	}
	return nil
}
