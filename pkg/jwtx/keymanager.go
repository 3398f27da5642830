package jwtx

import (
	"crypto/x509"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/aussiebroadwan/agentgrant/pkg/cryptox"
)

// MaxEphemeralKeys bounds NumKeys.
const MaxEphemeralKeys = 10

// KeyManager owns the signing keys of an instance, the KeySet published as
// JWKS and a Verifier bound to that KeySet. Its signers are fixed at
// construction; tokens are signed by one of them picked at random.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	sessions  *KeySetVerifier
	algorithm string
	signers   []Signer
}

type KeyManagerOptions struct {
	// Algorithm is RS256, ES256 or EdDSA. File mode detects it from the
	// key when empty.
	Algorithm string
	Issuer    string

	// Audience, when set, is required on every verified token.
	Audience []string

	RSABits int // default cryptox.MinRSABits
	NumKeys int // ephemeral mode only, 1..MaxEphemeralKeys
	Leeway  time.Duration
}

// keyGenerators produce a PKCS8 PEM private key per algorithm.
var keyGenerators = map[string]func(rsaBits int) ([]byte, error){
	AlgorithmRS256: func(bits int) ([]byte, error) {
		if bits == 0 {
			bits = cryptox.MinRSABits
		}
		return cryptox.GenerateRSAKey(bits)
	},
	AlgorithmES256: func(int) ([]byte, error) { return cryptox.GenerateES256Key() },
	AlgorithmEdDSA: func(int) ([]byte, error) { return cryptox.GenerateEd25519Key() },
}

// NewEphemeralKeyManager generates keys in memory. Tokens signed by them
// stop verifying when the process restarts; grants survive in the store and
// can be refreshed into new tokens.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}
	generate, ok := keyGenerators[opts.Algorithm]
	if !ok {
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: RS256, ES256, EdDSA)", opts.Algorithm)
	}

	n := min(max(opts.NumKeys, 1), MaxEphemeralKeys)
	signers := make([]Signer, n)
	for i := range signers {
		kid, err := cryptox.GenerateToken(cryptox.TokenSize128)
		if err != nil {
			return nil, fmt.Errorf("jwtx: key id: %w", err)
		}
		pemKey, err := generate(opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate %s key: %w", opts.Algorithm, err)
		}
		if signers[i], err = NewSigner(opts.Algorithm, "agentgrant-"+kid, pemKey); err != nil {
			return nil, err
		}
	}
	return newKeyManager(opts, signers)
}

// NewFileKeyManager loads one PEM private key from path. Its kid is a
// fingerprint of the public key, so replicas sharing the file agree on it
// across restarts.
func NewFileKeyManager(path string, opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	pemKey, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jwtx: read signing key: %w", err)
	}
	if opts.Algorithm == "" {
		if opts.Algorithm, err = DetectAlgorithm(pemKey); err != nil {
			return nil, err
		}
	}

	probe, err := NewSigner(opts.Algorithm, "probe", pemKey)
	if err != nil {
		return nil, err
	}
	kid, err := stableKeyID(probe.PublicJWK())
	if err != nil {
		return nil, err
	}
	signer, err := NewSigner(opts.Algorithm, kid, pemKey)
	if err != nil {
		return nil, err
	}
	return newKeyManager(opts, []Signer{signer})
}

func newKeyManager(opts KeyManagerOptions, signers []Signer) (*KeyManager, error) {
	keyset := NewKeySet()
	for _, s := range signers {
		if err := keyset.AddSigner(s); err != nil {
			return nil, fmt.Errorf("jwtx: publish %s: %w", s.KID(), err)
		}
	}

	verifier := NewVerifier(keyset, VerifyOptions{
		Issuer:   opts.Issuer,
		Audience: opts.Audience,
		Leeway:   opts.Leeway,
	})
	return &KeyManager{
		Verifier:  verifier,
		KeySet:    keyset,
		sessions:  verifier,
		algorithm: opts.Algorithm,
		signers:   signers,
	}, nil
}

func (km *KeyManager) Algorithm() string { return km.algorithm }

func (km *KeyManager) NumSigners() int { return len(km.signers) }

// IsReady reports whether at least one key is published.
func (km *KeyManager) IsReady() bool { return km.KeySet.IsReady() }

// GetSigner returns one of the signing keys, or nil when there are none.
func (km *KeyManager) GetSigner() Signer {
	if len(km.signers) == 0 {
		return nil
	}
	return km.signers[rand.IntN(len(km.signers))]
}

// Sign signs claims with one of the active keys.
func (km *KeyManager) Sign(claims Claims) (string, error) {
	s := km.GetSigner()
	if s == nil {
		return "", fmt.Errorf("jwtx: no signing key")
	}
	return s.Sign(claims)
}

// Verify checks token against the published KeySet.
func (km *KeyManager) Verify(token string) (Claims, error) {
	return km.Verifier.Verify(token)
}

// VerifyPrincipalSession checks a principal session token against the
// published KeySet.
func (km *KeyManager) VerifyPrincipalSession(token string) (Claims, error) {
	return km.sessions.VerifyPrincipalSession(token)
}

func stableKeyID(j JWK) (string, error) {
	pub, err := j.PublicKey()
	if err != nil {
		return "", err
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("jwtx: marshal public key: %w", err)
	}
	return "agentgrant-" + cryptox.FingerprintToken(string(der))[:22], nil
}
