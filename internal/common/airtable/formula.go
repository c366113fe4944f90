package airtable

import (
	"fmt"
	"strings"
)

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// Quote renders value as a single-quoted formula string literal.
func Quote(value string) string {
	return "'" + literalEscaper.Replace(value) + "'"
}

// Eq renders {field} = 'value'.
func Eq(field, value string) string {
	return fmt.Sprintf("{%s} = %s", field, Quote(value))
}

// NotEq renders {field} != 'value'.
func NotEq(field, value string) string {
	return fmt.Sprintf("{%s} != %s", field, Quote(value))
}

// And joins conditions with AND().
func And(conditions ...string) string {
	return "AND(" + strings.Join(conditions, ", ") + ")"
}
