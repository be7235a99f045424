package security

import (
	"github.com/matthewhartstonge/argon2"
)

// HashPassword hashes a password with argon2id and returns the encoded form.
func HashPassword(password string) (string, error) {
	argon := argon2.DefaultConfig()

	encoded, err := argon.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}
