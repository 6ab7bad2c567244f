package auth

import "golang.org/x/crypto/bcrypt"

// PINVerifier compares a caller-supplied secret against a stored one-way hash.
// Implementations must be side-effect free and must never log the secret.
type PINVerifier interface {
	Verify(secret, storedHash string) bool
}

// BcryptVerifier verifies PINs hashed with bcrypt, matching how account
// provisioning stores transfer and card PINs. bcrypt's comparison is
// constant-time over the digest.
type BcryptVerifier struct{}

func NewBcryptVerifier() BcryptVerifier {
	return BcryptVerifier{}
}

func (BcryptVerifier) Verify(secret, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(secret)) == nil
}

// HashPIN is the provisioning-side counterpart of Verify, used by
// administrative tooling and test fixtures.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
