package security

import (
	"errors"
	"testing"
)

func TestPasswordPolicyBaseline(t *testing.T) {
	policy := NewPasswordPolicy(DefaultPasswordPolicyConfig())

	cases := []struct {
		name     string
		password string
		wantCode string
	}{
		{name: "valid", password: "sufficient1"},
		{name: "too short", password: "abc1", wantCode: "min_length"},
		{name: "no digit", password: "lettersonly", wantCode: "digit"},
		{name: "no letter", password: "1234567890", wantCode: "letter"},
		{name: "exactly eight", password: "abcdefg1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Validate(tc.password)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected %q to pass, got %v", tc.password, err)
				}
				return
			}

			var violation *PasswordValidationError
			if !errors.As(err, &violation) {
				t.Fatalf("expected PasswordValidationError, got %v", err)
			}
			if violation.Code != tc.wantCode {
				t.Fatalf("expected violation %q, got %q", tc.wantCode, violation.Code)
			}
		})
	}
}

func TestPasswordPolicyStrengthRule(t *testing.T) {
	policy := NewPasswordPolicy(PasswordPolicyConfig{
		MinLength:       8,
		StrengthEnabled: true,
		MinZxcvbnScore:  3,
	}, "jdoe", "jdoe@example.edu")

	if err := policy.Validate("password1"); err == nil {
		t.Fatal("expected dictionary password to be rejected by strength rule")
	}
	if err := policy.Validate("tr4verse-batic-umbra-9"); err != nil {
		t.Fatalf("expected high-entropy password to pass, got %v", err)
	}
}
