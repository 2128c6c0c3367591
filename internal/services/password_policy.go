package services

import (
	"fmt"
	"strings"
	"unicode"
)

// PasswordRule is a single named check applied to a candidate password. Rules
// are pure and composable so the same policy serves sign-up and reset alike.
type PasswordRule struct {
	Name        string
	Description string
	Check       func(password string) bool
}

// DefaultPasswordRules returns the policy applied to every new password.
func DefaultPasswordRules() []PasswordRule {
	return []PasswordRule{
		{
			Name:        "min_length",
			Description: "Password must be at least 8 characters long",
			Check: func(password string) bool {
				return len(password) >= 8
			},
		},
		{
			Name:        "uppercase",
			Description: "Password must contain at least one uppercase letter",
			Check: func(password string) bool {
				return strings.ContainsFunc(password, unicode.IsUpper)
			},
		},
		{
			Name:        "lowercase",
			Description: "Password must contain at least one lowercase letter",
			Check: func(password string) bool {
				return strings.ContainsFunc(password, unicode.IsLower)
			},
		},
		{
			Name:        "digit",
			Description: "Password must contain at least one number",
			Check: func(password string) bool {
				return strings.ContainsFunc(password, unicode.IsDigit)
			},
		},
	}
}

// CheckPassword evaluates the password against every rule and returns the
// descriptions of the rules that failed. An empty slice means the password is
// acceptable.
func CheckPassword(password string, rules []PasswordRule) []string {
	if len(rules) == 0 {
		rules = DefaultPasswordRules()
	}

	var failures []string
	for _, rule := range rules {
		if !rule.Check(password) {
			failures = append(failures, rule.Description)
		}
	}
	return failures
}

// WeakPasswordError reports every policy rule the candidate password failed.
type WeakPasswordError struct {
	Failures []string
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("password does not meet policy: %s", strings.Join(e.Failures, "; "))
}
