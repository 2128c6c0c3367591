package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckPasswordAccepts(t *testing.T) {
	for _, password := range []string{"Abcd1234", "Sup3rSecret", "xX9aaaaa"} {
		require.Empty(t, CheckPassword(password, nil), "password %q should pass", password)
	}
}

func TestCheckPasswordFailures(t *testing.T) {
	tests := []struct {
		name     string
		password string
		failures int
	}{
		{"too short and missing classes", "weak", 3},
		{"missing uppercase", "abcd1234", 1},
		{"missing lowercase", "ABCD1234", 1},
		{"missing digit", "Abcdefgh", 1},
		{"empty", "", 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Len(t, CheckPassword(tc.password, nil), tc.failures)
		})
	}
}

func TestCheckPasswordWeakEnumeratesRules(t *testing.T) {
	failures := CheckPassword("weak", DefaultPasswordRules())
	require.Len(t, failures, 3)
	require.Contains(t, failures, "Password must be at least 8 characters long")
	require.Contains(t, failures, "Password must contain at least one uppercase letter")
	require.Contains(t, failures, "Password must contain at least one number")
}

func TestCheckPasswordCustomRules(t *testing.T) {
	rules := []PasswordRule{{
		Name:        "no_spaces",
		Description: "Password must not contain spaces",
		Check: func(password string) bool {
			for _, r := range password {
				if r == ' ' {
					return false
				}
			}
			return true
		},
	}}

	require.Empty(t, CheckPassword("anything", rules))
	require.Len(t, CheckPassword("with space", rules), 1)
}
