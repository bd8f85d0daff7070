package password

import "golang.org/x/crypto/bcrypt"

// Hash derives a salted one-way hash of the secret. bcrypt generates a fresh
// salt per call, so repeated hashes of the same input differ.
func Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether secret is the input that produced hashedSecret.
// A malformed stored hash is indistinguishable from a mismatch.
func Verify(secret, hashedSecret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret)) == nil
}
