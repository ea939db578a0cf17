package application

import (
	"fmt"
	"strings"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "exportDir" -> "export directory")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"exportDir":  "export directory",
		"storageDir": "storage directory",
		"hashesDB":   "hashes database",
		"target":     "target",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}

// ParseTarget splits a "host:dir" sync target on its last colon.
// Both parts must be non-empty; errors match ErrInvalidTarget.
func ParseTarget(target string) (host, dir string, err error) {
	i := strings.LastIndex(target, ":")
	if i < 0 {
		return "", "", fmt.Errorf("%w: %q (expected host:dir)", ErrInvalidTarget, target)
	}
	host, dir = target[:i], target[i+1:]
	if host == "" || dir == "" {
		return "", "", fmt.Errorf("%w: %q (expected host:dir)", ErrInvalidTarget, target)
	}
	return host, dir, nil
}

// ValidateTarget checks a sync target. The returned ValidationError
// unwraps to ErrInvalidTarget.
func ValidateTarget(target string) error {
	if err := ValidateRequired("target", target); err != nil {
		return err
	}
	if _, _, err := ParseTarget(target); err != nil {
		return &ValidationError{
			Field:   "target",
			Message: fmt.Sprintf("expected host:dir, got: %s", target),
			Err:     ErrInvalidTarget,
		}
	}
	return nil
}
