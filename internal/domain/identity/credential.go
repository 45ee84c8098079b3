package identity

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrCredentialMismatch is returned by Verify when the password is wrong.
var ErrCredentialMismatch = errors.New("credential mismatch")

// CredentialVerifier hashes passwords for storage and checks them at login.
type CredentialVerifier interface {
	Hash(plain string) (string, error)
	Verify(stored, plain string) error
}

// PlaintextVerifier stores passwords as given. It exists for databases
// populated before hashing was introduced.
type PlaintextVerifier struct{}

func (PlaintextVerifier) Hash(plain string) (string, error) {
	return plain, nil
}

func (PlaintextVerifier) Verify(stored, plain string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) != 1 {
		return ErrCredentialMismatch
	}
	return nil
}

// BcryptVerifier stores salted bcrypt hashes.
type BcryptVerifier struct {
	Cost int
}

func (v BcryptVerifier) Hash(plain string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (BcryptVerifier) Verify(stored, plain string) error {
	if !strings.HasPrefix(stored, "$2") {
		return ErrCredentialMismatch
	}
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrCredentialMismatch
	}
	return err
}

// NewVerifier returns the verifier for a CREDENTIAL_SCHEME value.
func NewVerifier(scheme string) (CredentialVerifier, error) {
	switch scheme {
	case "bcrypt", "":
		return BcryptVerifier{}, nil
	case "plaintext":
		return PlaintextVerifier{}, nil
	default:
		return nil, fmt.Errorf("unknown credential scheme %q", scheme)
	}
}
