package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
// It checks signature, issuer, audience and expiry only; revocation is the
// caller's business.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrUnknownKID   = errors.New("jwtx: unknown kid")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// KeySetVerifier verifies tokens signed by any key in a KeySet. The kid
// header selects the key and the key type must agree with the alg header,
// so an attacker cannot swap algorithms on a known kid.
type KeySetVerifier struct {
	keys *KeySet
	opts VerifyOptions
}

// NewVerifier returns a Verifier backed by keys.
func NewVerifier(keys *KeySet, opts VerifyOptions) *KeySetVerifier {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &KeySetVerifier{keys: keys, opts: opts}
}

// Verify parses and validates a grant token.
func (v *KeySetVerifier) Verify(tokenStr string) (Claims, error) {
	claims, err := v.parse(tokenStr)
	if err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateShape(); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// VerifyPrincipalSession parses and validates a principal session token.
// Sessions carry no audience, so the configured audience is not applied.
func (v *KeySetVerifier) VerifyPrincipalSession(tokenStr string) (Claims, error) {
	claims, err := v.parse(tokenStr)
	if err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateSessionShape(); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// parse checks signature, issuer and expiry.
func (v *KeySetVerifier) parse(tokenStr string) (Claims, error) {
	// Expiry is checked below with our own clock and leeway.
	parser := jwt.NewParser(jwt.WithValidMethods(validMethods), jwt.WithoutClaimsValidation())

	var claims Claims
	token, err := parser.ParseWithClaims(tokenStr, &claims, v.keyFunc)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownKID):
			return Claims{}, ErrUnknownKID
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSig
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(v.opts.Now(), v.opts.Leeway); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func (v *KeySetVerifier) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: missing kid", ErrUnknownKID)
	}

	pub, err := v.keys.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
	}

	if a, ok := algorithms[t.Method.Alg()]; !ok || !a.public(pub) {
		return nil, fmt.Errorf("%w: key %q does not match alg %s", ErrInvalidSig, kid, t.Method.Alg())
	}
	return pub, nil
}
