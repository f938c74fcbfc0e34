package quality

import (
	"errors"
	"fmt"
	"regexp"
)

// Field rules shared by every inbound payload. Callers trim strings before
// validation; an empty trimmed value counts as missing.
var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{2,100}$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe    = regexp.MustCompile(`^[0-9+\-() ]{7,20}$`)
)

const (
	MinAge    = 1
	MaxAge    = 120
	MinRating = 1
	MaxRating = 10

	maxEmailLength       = 255
	maxDescriptionLength = 10000
	maxFeedbackLength    = 2000
	maxBusinessIDLength  = 100
	maxImageIDLength     = 200
)

func ValidateUsername(s string) error {
	if s == "" {
		return errors.New("username is required")
	}
	if !usernameRe.MatchString(s) {
		return errors.New("username must be 2-100 characters of letters, digits or underscore")
	}
	return nil
}

func ValidateEmail(s string) error {
	if s == "" {
		return errors.New("email is required")
	}
	if len(s) > maxEmailLength || !emailRe.MatchString(s) {
		return errors.New("email address is invalid")
	}
	return nil
}

// ValidatePhone accepts an empty value; the field is optional.
func ValidatePhone(s string) error {
	if s == "" {
		return nil
	}
	if !phoneRe.MatchString(s) {
		return errors.New("phone must be 7-20 characters of digits, spaces or +-()")
	}
	return nil
}

func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return fmt.Errorf("age must be between %d and %d", MinAge, MaxAge)
	}
	return nil
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

func ValidateBusinessID(s string) error {
	if s == "" {
		return errors.New("participant_id is required")
	}
	if len(s) > maxBusinessIDLength {
		return fmt.Errorf("participant_id must be at most %d characters", maxBusinessIDLength)
	}
	return nil
}

func ValidateImageID(s string) error {
	if s == "" {
		return errors.New("image_id is required")
	}
	if len(s) > maxImageIDLength {
		return fmt.Errorf("image_id must be at most %d characters", maxImageIDLength)
	}
	return nil
}

func ValidateDescription(s string) error {
	if s == "" {
		return errors.New("description is required")
	}
	if len(s) > maxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", maxDescriptionLength)
	}
	return nil
}

func ValidateFeedback(s string) error {
	if len(s) > maxFeedbackLength {
		return fmt.Errorf("feedback must be at most %d characters", maxFeedbackLength)
	}
	return nil
}
