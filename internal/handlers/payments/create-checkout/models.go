// internal/handlers/payments/create-checkout/models.go
package createcheckout

import (
	"encoding/json"
	"strings"
)

const nonMemberID = "non-member"

type Input struct {
	MemberID string   `json:"memberId"`
	IsMember FlexBool `json:"isMember"`
}

// FlexBool accepts true/false, "true"/"false" and 1/0.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = FlexBool(t)
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		*b = FlexBool(s == "true" || s == "1" || s == "yes")
	case float64:
		*b = FlexBool(t != 0)
	default:
		*b = false
	}
	return nil
}

func (i *Input) metadata() map[string]string {
	memberID := strings.TrimSpace(i.MemberID)
	if memberID == "" {
		memberID = nonMemberID
	}
	isMember := "false"
	if i.IsMember {
		isMember = "true"
	}
	return map[string]string{
		"isMember": isMember,
		"memberId": memberID,
	}
}

type Output struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	URL       string `json:"url"`
}
