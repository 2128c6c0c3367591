package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt work factor applied to stored account passwords.
const PasswordHashCost = 12

// HashPassword returns a bcrypt hash of the supplied password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares the hashed password with the plaintext candidate.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// GeneratePIN returns a uniformly random numeric code of the given number of
// digits. Leading zeros are allowed, so the result is always exactly `digits`
// characters long.
func GeneratePIN(digits int) (string, error) {
	if digits <= 0 {
		digits = 6
	}

	var builder strings.Builder
	builder.Grow(digits)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		builder.WriteByte(byte('0' + n.Int64()))
	}
	return builder.String(), nil
}
