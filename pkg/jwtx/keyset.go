package jwtx

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet is the set of public keys grant tokens may be verified against,
// indexed by kid. The service fills it from its signers; resource servers
// fill it from a fetched JWKS.
type KeySet struct {
	mu   sync.RWMutex
	jwks []JWK
	pub  map[string]any
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]any)}
}

// AddSigner publishes the public half of s. A kid already present is an
// error: two signers sharing one would make verification ambiguous.
func (k *KeySet) AddSigner(s Signer) error {
	j := s.PublicJWK()
	key, err := j.PublicKey()
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if _, dup := k.pub[j.Kid]; dup {
		return fmt.Errorf("jwtx: duplicate kid %q", j.Kid)
	}
	k.pub[j.Kid] = key
	k.jwks = append(k.jwks, j)
	return nil
}

// Get returns the public key for kid.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// PublicJWKS returns a copy of the published keys, in insertion order.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return JWKS{Keys: slices.Clone(k.jwks)}
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}

// Replace swaps the whole set for the keys in jwks. Nothing changes if any
// key fails to parse, so a bad fetch never empties a working set.
func (k *KeySet) Replace(jwks JWKS) error {
	next := make(map[string]any, len(jwks.Keys))
	for _, j := range jwks.Keys {
		if j.Kid == "" {
			return errors.New("jwtx: JWK without kid")
		}
		key, err := j.PublicKey()
		if err != nil {
			return fmt.Errorf("jwtx: kid %q: %w", j.Kid, err)
		}
		next[j.Kid] = key
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub = next
	k.jwks = slices.Clone(jwks.Keys)
	return nil
}
