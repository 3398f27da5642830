package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

const (
	PKCEMethodS256  = "S256"
	PKCEMethodPlain = "plain"
)

// pkceBinding is the challenge an authorization request was created with.
// The zero value means the code is not PKCE bound.
type pkceBinding struct {
	Challenge string
	Method    string
}

// newPKCEBinding normalises a challenge from an authorize call. A missing
// method means S256.
func newPKCEBinding(challenge, method string) (pkceBinding, error) {
	challenge = strings.TrimSpace(challenge)
	if challenge == "" {
		return pkceBinding{}, nil
	}

	switch method = strings.TrimSpace(method); {
	case method == "" || strings.EqualFold(method, PKCEMethodS256):
		return pkceBinding{Challenge: challenge, Method: PKCEMethodS256}, nil
	case strings.EqualFold(method, PKCEMethodPlain):
		return pkceBinding{Challenge: challenge, Method: PKCEMethodPlain}, nil
	default:
		return pkceBinding{}, ErrPKCEMethod
	}
}

func (b pkceBinding) bound() bool { return b.Challenge != "" }

// check validates verifier against the stored challenge in constant time.
// An unbound request accepts anything.
func (b pkceBinding) check(verifier string) error {
	if !b.bound() {
		return nil
	}
	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return ErrVerifierRequired
	}

	want := verifier
	if !strings.EqualFold(b.Method, PKCEMethodPlain) {
		sum := sha256.Sum256([]byte(verifier))
		want = base64.RawURLEncoding.EncodeToString(sum[:])
	}
	if subtle.ConstantTimeCompare([]byte(b.Challenge), []byte(want)) != 1 {
		return ErrVerifierMismatch
	}
	return nil
}
