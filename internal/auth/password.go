package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
)

// saltSize matches the natural key size of HMAC-SHA512.
const saltSize = sha512.Size

// HashPassword derives an HMAC-SHA512 digest of the password under a fresh
// random key. The key doubles as the per-user salt and must be stored next
// to the hash.
func HashPassword(password string) (hash, salt []byte, err error) {
	salt = make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("generating salt: %w", err)
	}

	return computeHash(password, salt), salt, nil
}

// VerifyPassword recomputes the digest and compares it in constant time.
func VerifyPassword(password string, hash, salt []byte) bool {
	return hmac.Equal(computeHash(password, salt), hash)
}

func computeHash(password string, salt []byte) []byte {
	mac := hmac.New(sha512.New, salt)
	mac.Write([]byte(password))

	return mac.Sum(nil)
}
