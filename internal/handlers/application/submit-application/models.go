// internal/handlers/application/submit-application/models.go
package submitapplication

import (
	"fmt"
	"strconv"
	"strings"
)

// Input is the builder application form as posted by the site, keyed by form field name.
type Input map[string]interface{}

// Value returns a form field as text. Numbers are formatted without exponent.
func (in Input) Value(key string) string {
	switch v := in[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (in Input) MemberID() string {
	return strings.TrimSpace(in.Value("msMemId"))
}

type Output struct {
	Message               string `json:"message"`
	MainRecordID          string `json:"mainRecordId"`
	ReferenceRecordsCount int    `json:"referenceRecordsCount"`
	EmailSent             bool   `json:"emailSent"`
}

// applicationColumns maps form fields onto the applications table.
var applicationColumns = []struct {
	form   string
	column string
}{
	{"Builder-First-Name", "First Name"},
	{"Builder-Last-Name", "Last Name"},
	{"Builder-Phone", "Phone"},
	{"Builder-Email-Address", "Email"},
	{"Builder-Title-Position", "Title or Position"},
	{"Builder-Business-Name", "Full Business Name"},
	{"Builder-Mailing", "Mailing Address"},
	{"Builder-City", "City"},
	{"Builder-State", "State"},
	{"Builder-Zip", "Zip"},
	{"Fed-Tax-Employer-ID", "Fed Tax Employer ID #"},
	{"State-Tax-ID", "State Tax ID #"},
	{"Corporate-ID", "Corporate ID #"},
	{"Education-Degree", "Have you completed an education degree, professional designation program (NAHB or other) or apprenticeship?"},
	{"Construction-Business", "Number of years in the construction business"},
	{"Dwellings-Built", "Number of dwellings built in the last 5 years"},
	{"Insurance-Company", "Insurance Company"},
	{"Insurance-Bond-Holder", "Insurance Bond Holder"},
	{"L-I-Account-ID", "L&I Account ID#"},
	{"msMemId", "Member ID"},
}

// referenceColumns maps the numbered reference fields; every one is required
// for a reference to be kept.
var referenceColumns = []struct {
	form   string
	column string
}{
	{"Reference-Email-Address-%d", "Email"},
	{"Reference-First-Name-%d", "First Name"},
	{"Reference-Last-Name-%d", "Last Name"},
	{"Reference-Phone-%d", "Phone"},
	{"Reference-Type-%d", "Reference Type"},
}

// referenceLinkColumn links a reference row back to its application.
const referenceLinkColumn = "Builder application Form 2"
