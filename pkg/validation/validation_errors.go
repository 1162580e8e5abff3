package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps struct field names to user-friendly labels
var FieldLabels = map[string]string{
	// Requirement fields
	"Sector":            "Sector",
	"TrainingType":      "Training type",
	"PreferredLanguage": "Preferred language",
	"Format":            "Delivery format",
	"ExperienceLevel":   "Experience level",
	"Urgency":           "Urgency",
	"TeamSize":          "Team size",
	"BudgetPerHour":     "Budget per hour",
	"K":                 "Result limit",

	// Job posting fields
	"Title":            "Title",
	"Description":      "Description",
	"CompanyID":        "Company ID",
	"Status":           "Status",
	"TargetStatus":     "Target status",
	"ExpectedRevision": "Expected revision",
	"ExpiresAt":        "Expiry date",
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var messages []string

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		// Not a validation error, return generic message
		return []string{err.Error()}
	}

	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}

	return messages
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: required", label)

	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s: must be at least %s characters", label, param)
		}
		return fmt.Sprintf("%s: must be at least %s", label, param)

	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s: must be at most %s characters", label, param)
		}
		return fmt.Sprintf("%s: must be at most %s", label, param)

	case "gt":
		return fmt.Sprintf("%s: must be greater than %s", label, param)

	case "gte":
		return fmt.Sprintf("%s: must be %s or more", label, param)

	case "oneof":
		return fmt.Sprintf("%s: must be one of: %s", label, strings.Join(strings.Split(param, " "), ", "))

	default:
		return fmt.Sprintf("%s: failed %s validation", label, e.Tag())
	}
}

// getFieldLabel returns the user-friendly label for a field
func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return formatCamelCase(fieldName)
}

// formatCamelCase converts CamelCase to spaced words
func formatCamelCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
	}
	return result.String()
}
