package security

const (
	defaultMinPasswordLength = 8
	defaultMinZxcvbnScore    = 2
)

// PasswordPolicyConfig tunes the structural password rules and the optional
// strength check.
type PasswordPolicyConfig struct {
	MinLength       int
	StrengthEnabled bool
	MinZxcvbnScore  int
}

// DefaultPasswordPolicyConfig returns the platform baseline: at least eight
// characters containing a letter and a digit, strength scoring off.
func DefaultPasswordPolicyConfig() PasswordPolicyConfig {
	return PasswordPolicyConfig{
		MinLength:      defaultMinPasswordLength,
		MinZxcvbnScore: defaultMinZxcvbnScore,
	}
}

// NewPasswordPolicy builds the validator enforcing the service password
// policy. User inputs (username, email) feed the strength scorer so
// passwords derived from the account identity rank lower.
func NewPasswordPolicy(cfg PasswordPolicyConfig, userInputs ...string) *PasswordValidator {
	minLength := cfg.MinLength
	if minLength <= 0 {
		minLength = defaultMinPasswordLength
	}

	rules := []PasswordRule{
		MinLengthRule(minLength),
		RequireLetterRule(),
		RequireDigitRule(),
	}
	if cfg.StrengthEnabled {
		score := cfg.MinZxcvbnScore
		if score <= 0 {
			score = defaultMinZxcvbnScore
		}
		rules = append(rules, RequirePasswordStrengthRule(score, userInputs...))
	}

	return NewPasswordValidator(rules...)
}
