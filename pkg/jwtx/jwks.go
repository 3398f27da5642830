package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

// JWK is the public half of a grant signing key (RFC 7517). Only the
// members for RSA, Ed25519 (OKP) and P-256 (EC) keys are modelled.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid,omitempty"`

	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"` // EC only
}

// JWKS is a JSON Web Key Set (RFC 7517).
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// NewJWK encodes pub as a signature-use JWK. It is the inverse of
// JWK.PublicKey.
func NewJWK(kid, alg string, pub crypto.PublicKey) (JWK, error) {
	b64 := base64.RawURLEncoding.EncodeToString
	j := JWK{Use: "sig", Alg: alg, Kid: kid}

	switch k := pub.(type) {
	case *rsa.PublicKey:
		j.Kty = "RSA"
		j.N = b64(k.N.Bytes())
		j.E = b64(big.NewInt(int64(k.E)).Bytes())

	case ed25519.PublicKey:
		j.Kty, j.Crv = "OKP", "Ed25519"
		j.X = b64(k)

	case *ecdsa.PublicKey:
		if k.Curve != elliptic.P256() {
			return JWK{}, fmt.Errorf("jwtx: unsupported EC curve %s", k.Curve.Params().Name)
		}
		// Uncompressed point: 0x04 || X || Y, each padded to 32 bytes.
		raw, err := k.Bytes()
		if err != nil {
			return JWK{}, fmt.Errorf("jwtx: encode P-256 key: %w", err)
		}
		j.Kty, j.Crv = "EC", "P-256"
		j.X = b64(raw[1:33])
		j.Y = b64(raw[33:])

	default:
		return JWK{}, fmt.Errorf("jwtx: unsupported public key type %T", pub)
	}
	return j, nil
}

// PublicKey decodes j into *rsa.PublicKey, ed25519.PublicKey or
// *ecdsa.PublicKey. EC points are checked to lie on P-256.
func (j JWK) PublicKey() (any, error) {
	switch j.Kty {
	case "RSA":
		nb, err := base64.RawURLEncoding.DecodeString(j.N)
		if err != nil {
			return nil, fmt.Errorf("jwtx: RSA modulus: %w", err)
		}
		eb, err := base64.RawURLEncoding.DecodeString(j.E)
		if err != nil {
			return nil, fmt.Errorf("jwtx: RSA exponent: %w", err)
		}
		n := new(big.Int).SetBytes(nb)
		e := new(big.Int).SetBytes(eb)
		if n.BitLen() < 2048 || !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
			return nil, errors.New("jwtx: RSA key out of range")
		}
		return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil

	case "OKP":
		if j.Crv != "Ed25519" {
			return nil, fmt.Errorf("jwtx: unsupported OKP curve %q", j.Crv)
		}
		xb, err := base64.RawURLEncoding.DecodeString(j.X)
		if err != nil {
			return nil, fmt.Errorf("jwtx: Ed25519 x: %w", err)
		}
		if len(xb) != ed25519.PublicKeySize {
			return nil, errors.New("jwtx: invalid Ed25519 public key size")
		}
		return ed25519.PublicKey(xb), nil

	case "EC":
		if j.Crv != "P-256" {
			return nil, fmt.Errorf("jwtx: unsupported EC curve %q", j.Crv)
		}
		xb, err := base64.RawURLEncoding.DecodeString(j.X)
		if err != nil {
			return nil, fmt.Errorf("jwtx: EC x: %w", err)
		}
		yb, err := base64.RawURLEncoding.DecodeString(j.Y)
		if err != nil {
			return nil, fmt.Errorf("jwtx: EC y: %w", err)
		}
		if len(xb) != 32 || len(yb) != 32 {
			return nil, errors.New("jwtx: invalid P-256 coordinate size")
		}
		point := append([]byte{0x04}, append(xb, yb...)...)
		pub, err := ecdsa.ParseUncompressedPublicKey(elliptic.P256(), point)
		if err != nil {
			return nil, fmt.Errorf("jwtx: P-256 point: %w", err)
		}
		return pub, nil

	default:
		return nil, fmt.Errorf("jwtx: unsupported kty %q", j.Kty)
	}
}
