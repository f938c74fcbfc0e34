package quality

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"ab", "alice_01", "X9", strings.Repeat("a", 100)}
	for _, u := range valid {
		if err := ValidateUsername(u); err != nil {
			t.Errorf("Expected %q to be a valid username. Got: %v", u, err)
		}
	}

	invalid := []string{"", "a", "has space", "dash-name", "émile", strings.Repeat("a", 101)}
	for _, u := range invalid {
		if err := ValidateUsername(u); err == nil {
			t.Errorf("Expected %q to be rejected.", u)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@x.io", "first.last+tag@research.example.org"}
	for _, e := range valid {
		if err := ValidateEmail(e); err != nil {
			t.Errorf("Expected %q to be a valid email. Got: %v", e, err)
		}
	}

	invalid := []string{"", "plain", "no@tld", "two@@x.io", "spaced name@x.io",
		strings.Repeat("a", 250) + "@example.com"}
	for _, e := range invalid {
		if err := ValidateEmail(e); err == nil {
			t.Errorf("Expected %q to be rejected.", e)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	if err := ValidatePhone(""); err != nil {
		t.Errorf("Expected empty phone to be accepted (optional field). Got: %v", err)
	}
	if err := ValidatePhone("+1 (555) 010-2345"); err != nil {
		t.Errorf("Expected a formatted phone to pass. Got: %v", err)
	}
	if err := ValidatePhone("12345"); err == nil {
		t.Error("Expected a 5-digit phone to be rejected (too short).")
	}
	if err := ValidatePhone("555-HELLO"); err == nil {
		t.Error("Expected letters in a phone to be rejected.")
	}
}

func TestValidateAge(t *testing.T) {
	for _, age := range []int{1, 24, 120} {
		if err := ValidateAge(age); err != nil {
			t.Errorf("Expected age %d to pass. Got: %v", age, err)
		}
	}
	for _, age := range []int{0, -3, 121} {
		if err := ValidateAge(age); err == nil {
			t.Errorf("Expected age %d to be rejected.", age)
		}
	}
}

func TestValidateRating(t *testing.T) {
	if err := ValidateRating(1); err != nil {
		t.Errorf("Expected rating 1 to pass. Got: %v", err)
	}
	if err := ValidateRating(10); err != nil {
		t.Errorf("Expected rating 10 to pass. Got: %v", err)
	}
	if err := ValidateRating(0); err == nil {
		t.Error("Expected rating 0 to be rejected.")
	}
	if err := ValidateRating(11); err == nil {
		t.Error("Expected rating 11 to be rejected.")
	}
}

func TestValidateDescriptionAndFeedback(t *testing.T) {
	if err := ValidateDescription(""); err == nil {
		t.Error("Expected empty description to be rejected.")
	}
	if err := ValidateDescription(strings.Repeat("a", 10001)); err == nil {
		t.Error("Expected an over-length description to be rejected.")
	}
	if err := ValidateFeedback(strings.Repeat("b", 2001)); err == nil {
		t.Error("Expected over-length feedback to be rejected.")
	}
	if err := ValidateFeedback(""); err != nil {
		t.Errorf("Expected empty feedback to be accepted. Got: %v", err)
	}
}
