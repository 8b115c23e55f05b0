package core

import (
	"baldsphere-backend/internal/database"
	"regexp"
	"strings"
	"unicode"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	MinPasswordLength = 8
	passwordSpecials  = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return validationErrorf("Invalid email format")
	}
	return nil
}

// ValidatePassword reports every unmet requirement at once.
func ValidatePassword(password string) error {
	var missing []string
	if len(password) < MinPasswordLength {
		missing = append(missing, "at least 8 characters")
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		missing = append(missing, "at least one lowercase letter")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		missing = append(missing, "at least one uppercase letter")
	}
	if !strings.ContainsAny(password, "0123456789") {
		missing = append(missing, "at least one number")
	}
	if !strings.ContainsAny(password, passwordSpecials) {
		missing = append(missing, "at least one special character (!@#$%^&*()_+-=[]{}|;:,.<>?)")
	}

	if len(missing) > 0 {
		return validationErrorf("Password must contain %s", strings.Join(missing, ", "))
	}
	return nil
}

func ValidateRegions(regions []string) error {
	var invalid []string
	for _, region := range regions {
		if !database.IsRegion(region) {
			invalid = append(invalid, region)
		}
	}
	if len(invalid) > 0 {
		return validationErrorf("Invalid brain regions: %s. Valid regions are: %s",
			strings.Join(invalid, ", "), strings.Join(database.Regions, ", "))
	}
	return nil
}

func ValidateRole(role string) error {
	if role != database.RoleUser && role != database.RoleAssistant {
		return validationErrorf("Invalid role '%s': must be %s or %s", role, database.RoleUser, database.RoleAssistant)
	}
	return nil
}

func requireFields(message string, values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return validationErrorf("%s", message)
		}
	}
	return nil
}
