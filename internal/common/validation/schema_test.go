package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["memberId", "fields"],
  "properties": {
    "memberId": {"type": "string", "minLength": 1},
    "autopayDisabled": {"type": "boolean"},
    "fields": {
      "type": "object",
      "required": ["Name"],
      "properties": {"Name": {"type": "string"}}
    }
  }
}`

func TestSchema_Validate(t *testing.T) {
	schema := MustCompile(testSchema)

	tests := []struct {
		name       string
		doc        interface{}
		wantValid  bool
		wantFields []string
	}{
		{
			name:      "valid",
			doc:       map[string]interface{}{"memberId": "M1", "fields": map[string]interface{}{"Name": "Jane"}},
			wantValid: true,
		},
		{
			name:       "missing member id",
			doc:        map[string]interface{}{"fields": map[string]interface{}{"Name": "Jane"}},
			wantFields: []string{"memberId"},
		},
		{
			name:       "empty member id",
			doc:        map[string]interface{}{"memberId": "", "fields": map[string]interface{}{"Name": "Jane"}},
			wantFields: []string{"memberId"},
		},
		{
			name:       "nested required",
			doc:        map[string]interface{}{"memberId": "M1", "fields": map[string]interface{}{}},
			wantFields: []string{"fields.Name"},
		},
		{
			name:       "wrong type",
			doc:        map[string]interface{}{"memberId": "M1", "autopayDisabled": "yes", "fields": map[string]interface{}{"Name": "Jane"}},
			wantFields: []string{"autopayDisabled"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.Validate(tt.doc)
			assert.Equal(t, tt.wantValid, result.Valid)
			for _, f := range tt.wantFields {
				assert.True(t, result.HasErrors(f), "expected error for %s, got %v", f, result.GetErrorMessages())
			}
		})
	}
}

func TestSchema_ValidateStruct(t *testing.T) {
	schema := MustCompile(testSchema)

	type body struct {
		MemberID string            `json:"memberId"`
		Fields   map[string]string `json:"fields"`
	}
	result := schema.Validate(body{MemberID: "M1", Fields: map[string]string{"Name": "Jane"}})
	assert.True(t, result.Valid)
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	require.Error(t, err)
	assert.Panics(t, func() { MustCompile(`not json`) })
}

func TestGetErrorsForField(t *testing.T) {
	vr := &ValidationResult{Errors: []ValidationError{
		{Field: "fields.Name"},
		{Field: "fields"},
		{Field: "memberId"},
	}}
	assert.Len(t, vr.GetErrorsForField("fields"), 2)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("jane@example.org"))
	assert.False(t, ValidateEmail("jane@"))
}
