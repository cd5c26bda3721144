package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rebeliceyang/lazycirc/internal/models"
)

var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// ValidateValue checks a value before it is added to a tree. The tree
// itself accepts any string; this only catches input the server would reject.
func ValidateValue(key models.FieldKey, op models.FilterOperator, value string) error {
	field, ok := LookupField(key)
	if !ok {
		return fmt.Errorf("unknown field %q", key)
	}
	if !AllowsOperator(key, op) {
		return fmt.Errorf("%s does not support %s", field.Label, Symbol(op))
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s needs a value", field.Label)
	}

	switch field.Kind {
	case KindDate:
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
				return nil
			}
		}
		return fmt.Errorf("%q is not a date: use YYYY, YYYY-MM or YYYY-MM-DD", value)
	}

	if op == models.OpRegex {
		if _, err := regexp.Compile(value); err != nil {
			return fmt.Errorf("invalid regular expression: %w", err)
		}
	}
	return nil
}

// ValueHint describes what a field expects, for input placeholders
func ValueHint(key models.FieldKey) string {
	field, ok := LookupField(key)
	if !ok {
		return "value"
	}
	switch field.Kind {
	case KindDate:
		return "YYYY, YYYY-MM or YYYY-MM-DD"
	case KindFlag:
		return "yes or no"
	}
	return strings.ToLower(field.Label)
}
