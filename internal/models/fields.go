package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SelectValue is a single-select cell. Webhook automations send it either as
// {"name": "..."} or as a bare string.
type SelectValue struct {
	Name string `json:"name"`
}

func (s *SelectValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		s.Name = ""
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &s.Name)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("select value: %w", err)
	}
	s.Name = obj.Name
	return nil
}

// Attachment is a file cell. Only the URL is propagated.
type Attachment struct {
	ID       string `json:"id,omitempty"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// FirstURL returns the URL of the first attachment, or "".
func FirstURL(attachments []Attachment) string {
	for _, a := range attachments {
		if a.URL != "" {
			return a.URL
		}
	}
	return ""
}

// FlexString accepts a JSON string or number, since row ids such as
// "Member ID" and "Year" arrive in either form.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }
