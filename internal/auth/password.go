package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt password hashing.
const BcryptCost = 12

// HashPassword derives a salted one-way hash from a plaintext password.
// bcrypt generates a fresh random salt per call, so two hashes of the same
// password never match each other.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext password matches the stored
// hash. The comparison is delegated to bcrypt and is constant-time with
// respect to the hash.
func VerifyPassword(password, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}

// dummyHash is a valid cost-12 hash of an unguessable throwaway value.
var dummyHash = func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("happenit-dummy-credential"), BcryptCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}()

// BurnPasswordCheck runs a bcrypt comparison against a throwaway hash so
// lookups that miss cost the same as lookups that hit. It always fails.
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
