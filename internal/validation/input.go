package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength       = 3
	MaxUsernameLength       = 30
	MaxListingNameLength    = 200
	MaxDescriptionLength    = 5000
	MaxLocationLength       = 200
	MaxReportReasonLength   = 2000
	MaxMessageLength        = 5000
	MaxHelperIdentifierSize = 254
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	usernameRegex    = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// ValidateLength проверяет длину строки в символах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("invalid email format")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("email local part must be 1 to 64 characters")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("email domain must be 1 to 255 characters")
	}

	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("email local part contains invalid characters")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("email domain has invalid format")
	}

	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}

	if err := ValidateLength("username", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may contain only letters, digits and underscores")
	}

	// Не начинается с цифры
	if unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("username must not start with a digit")
	}

	return nil
}

// ValidateListing проверяет поля объявления.
func ValidateListing(name, description string, location *string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("item name is required")
	}
	if err := ValidateLength("item name", strings.TrimSpace(name), 0, MaxListingNameLength); err != nil {
		return err
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("description is required")
	}
	if err := ValidateLength("description", strings.TrimSpace(description), 0, MaxDescriptionLength); err != nil {
		return err
	}
	if location != nil {
		return ValidateLength("location", strings.TrimSpace(*location), 0, MaxLocationLength)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	return nil
}
