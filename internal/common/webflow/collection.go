package webflow

import "strings"

// Collection is a CMS collection schema.
type Collection struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Slug        string  `json:"slug"`
	Fields      []Field `json:"fields"`
}

type Field struct {
	ID          string       `json:"id"`
	Slug        string       `json:"slug"`
	DisplayName string       `json:"displayName"`
	Type        string       `json:"type"`
	Validations *Validations `json:"validations,omitempty"`
}

type Validations struct {
	Options []Option `json:"options,omitempty"`
}

// Option is one choice of an Option field.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Field returns the field with the given slug, or nil.
func (c *Collection) Field(slug string) *Field {
	if c == nil {
		return nil
	}
	for i := range c.Fields {
		if c.Fields[i].Slug == slug {
			return &c.Fields[i]
		}
	}
	return nil
}

// OptionID returns the id of the option named name, or "" when absent.
func (f *Field) OptionID(name string) string {
	return f.findOption(func(candidate string) bool { return candidate == name })
}

// OptionIDFold is OptionID with case-insensitive matching.
func (f *Field) OptionIDFold(name string) string {
	return f.findOption(func(candidate string) bool { return strings.EqualFold(candidate, name) })
}

func (f *Field) findOption(match func(string) bool) string {
	if f == nil || f.Validations == nil {
		return ""
	}
	for _, opt := range f.Validations.Options {
		if match(opt.Name) {
			return opt.ID
		}
	}
	return ""
}
