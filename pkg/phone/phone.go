package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country code.
const DefaultRegion = "US"

// ErrInvalidPhoneNumber is returned for numbers that cannot be dialed.
var ErrInvalidPhoneNumber = errors.New("invalid phone number format")

// Normalize converts a phone number to E.164 (+15125550100).
func Normalize(phone, region string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", fmt.Errorf("phone number cannot be empty: %w", ErrInvalidPhoneNumber)
	}
	if region == "" {
		region = DefaultRegion
	}

	parsed, err := phonenumbers.Parse(phone, region)
	if err != nil {
		return "", fmt.Errorf("failed to parse phone number: %w", ErrInvalidPhoneNumber)
	}

	if !phonenumbers.IsPossibleNumber(parsed) {
		return "", ErrInvalidPhoneNumber
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// Mask hides all but the last four digits, for logs.
func Mask(phone string) string {
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
