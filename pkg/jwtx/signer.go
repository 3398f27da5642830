package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Supported JWT signing algorithms
const (
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	PublicJWK() JWK
}

type keySigner struct {
	kid    string
	method jwt.SigningMethod
	key    crypto.Signer
	jwk    JWK
}

func (s *keySigner) Alg() string    { return s.method.Alg() }
func (s *keySigner) KID() string    { return s.kid }
func (s *keySigner) PublicJWK() JWK { return s.jwk }

// Sign serialises and signs claims, stamping the kid header so verifiers can
// pick the right key out of a JWKS.
func (s *keySigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(s.method, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func newKeySigner(kid, alg string, method jwt.SigningMethod, key crypto.Signer) (Signer, error) {
	jwk, err := NewJWK(kid, alg, key.Public())
	if err != nil {
		return nil, err
	}
	return &keySigner{kid: kid, method: method, key: key, jwk: jwk}, nil
}

// algorithm pairs a JWS alg with the key types it accepts.
type algorithm struct {
	method  jwt.SigningMethod
	private func(key any) (crypto.Signer, bool)
	public  func(key any) bool
}

var algorithms = map[string]algorithm{
	AlgorithmRS256: {
		method: jwt.SigningMethodRS256,
		private: func(key any) (crypto.Signer, bool) {
			k, ok := key.(*rsa.PrivateKey)
			return k, ok
		},
		public: func(key any) bool {
			_, ok := key.(*rsa.PublicKey)
			return ok
		},
	},
	AlgorithmES256: {
		method: jwt.SigningMethodES256,
		private: func(key any) (crypto.Signer, bool) {
			k, ok := key.(*ecdsa.PrivateKey)
			return k, ok && k.Curve == elliptic.P256()
		},
		public: func(key any) bool {
			k, ok := key.(*ecdsa.PublicKey)
			return ok && k.Curve == elliptic.P256()
		},
	},
	AlgorithmEdDSA: {
		method: jwt.SigningMethodEdDSA,
		private: func(key any) (crypto.Signer, bool) {
			k, ok := key.(ed25519.PrivateKey)
			return k, ok
		},
		public: func(key any) bool {
			_, ok := key.(ed25519.PublicKey)
			return ok
		},
	},
}

// validMethods is also the order DetectAlgorithm tries.
var validMethods = []string{AlgorithmRS256, AlgorithmES256, AlgorithmEdDSA}

// NewSigner loads a private key from PEM and binds it to alg. RSA keys may
// be PKCS1 or PKCS8, EC keys SEC1 or PKCS8, Ed25519 keys PKCS8.
func NewSigner(alg, kid string, pemKey []byte) (Signer, error) {
	a, ok := algorithms[alg]
	if !ok {
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: RS256, ES256, EdDSA)", alg)
	}
	key, err := parsePrivateKey(pemKey)
	if err != nil {
		return nil, err
	}
	k, ok := a.private(key)
	if !ok {
		return nil, fmt.Errorf("jwtx: %s cannot sign with a %T", alg, key)
	}
	return newKeySigner(kid, alg, a.method, k)
}

// DetectAlgorithm picks the signing algorithm matching a PEM private key.
func DetectAlgorithm(pemKey []byte) (string, error) {
	key, err := parsePrivateKey(pemKey)
	if err != nil {
		return "", err
	}
	for _, alg := range validMethods {
		if _, ok := algorithms[alg].private(key); ok {
			return alg, nil
		}
	}
	return "", fmt.Errorf("jwtx: unsupported private key type %T", key)
}

func parsePrivateKey(pemKey []byte) (any, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM private key")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse PKCS1: %w", err)
		}
		return k, nil
	case "PRIVATE KEY":
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
		}
		return k, nil
	case "EC PRIVATE KEY":
		k, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse EC key: %w", err)
		}
		return k, nil
	default:
		return nil, fmt.Errorf("jwtx: unsupported PEM type %q", block.Type)
	}
}
