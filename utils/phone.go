package utils

import (
	"regexp"
	"strings"
)

// FormatPhoneNumber formats a phone number to a standard format
// Removes all non-digit characters and ensures it starts with country code
func FormatPhoneNumber(phoneNumber string) string {
	// Remove all non-digit characters
	re := regexp.MustCompile(`\D`)
	digits := re.ReplaceAllString(phoneNumber, "")

	// Bare 10-digit numbers are assumed North American (+1)
	if len(digits) == 10 {
		digits = "1" + digits
	}

	return digits
}

// ValidatePhoneNumber validates if a phone number is in correct format
func ValidatePhoneNumber(phoneNumber string) bool {
	// Remove all non-digit characters
	re := regexp.MustCompile(`\D`)
	cleaned := re.ReplaceAllString(phoneNumber, "")

	// Accept 10 digits or 11 with the leading country code
	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "1") {
		cleaned = cleaned[1:]
	}
	if len(cleaned) != 10 {
		return false
	}

	// Area code and exchange cannot start with 0 or 1
	if cleaned[0] == '0' || cleaned[0] == '1' {
		return false
	}
	if cleaned[3] == '0' || cleaned[3] == '1' {
		return false
	}

	return true
}

// NormalizePhoneNumber normalizes phone number for database storage
func NormalizePhoneNumber(phoneNumber string) string {
	return FormatPhoneNumber(phoneNumber)
}

// DisplayPhoneNumber formats phone number for display
func DisplayPhoneNumber(phoneNumber string) string {
	formatted := FormatPhoneNumber(phoneNumber)
	if len(formatted) == 11 && strings.HasPrefix(formatted, "1") {
		// Format as +1 (XXX) XXX-XXXX
		return "+1 (" + formatted[1:4] + ") " + formatted[4:7] + "-" + formatted[7:11]
	}
	return phoneNumber
}
