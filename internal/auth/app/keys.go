package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/agentgrant/pkg/cryptox"
	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
)

// InitAuthKeys creates the KeyManager for the configured key mode.
//
// Key modes:
//   - "ephemeral": keys are generated on startup and kept only in memory.
//     Grant tokens stop verifying when the process restarts; the grants
//     themselves survive in the store and can be refreshed.
//   - "file": a single PEM private key is loaded from AUTH_SIGNING_KEY_FILE.
//     Its kid is derived from the public key, so replicas sharing the file
//     publish the same JWKS.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		Audience:  nil, // grant audiences are per request, checked by resource adapters
		RSABits:   cfg.RSABits,
		NumKeys:   cfg.NumKeys,
	}

	switch cfg.KeyMode {
	case KeyModeFile:
		km, err := jwtx.NewFileKeyManager(cfg.SigningKeyFile, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		logger.Info("signing key loaded",
			"algorithm", km.Algorithm(),
			"path", cfg.SigningKeyFile,
			"issuer", cfg.Issuer,
		)
		return km, nil

	default:
		km, err := jwtx.NewEphemeralKeyManager(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
		}
		logger.Info("generated ephemeral signing keys",
			"algorithm", km.Algorithm(),
			"num_keys", km.NumSigners(),
			"issuer", cfg.Issuer,
		)
		logger.Warn("grant tokens issued before this start no longer verify; refresh them")
		return km, nil
	}
}

// GenerateSigningKey returns a PEM private key for algorithm, suitable for
// AUTH_SIGNING_KEY_FILE.
func GenerateSigningKey(algorithm string, rsaBits int) ([]byte, error) {
	switch algorithm {
	case jwtx.AlgorithmRS256:
		if rsaBits <= 0 {
			rsaBits = 2048
		}
		return cryptox.GenerateRSAKey(rsaBits)
	case jwtx.AlgorithmES256:
		return cryptox.GenerateES256Key()
	case jwtx.AlgorithmEdDSA:
		return cryptox.GenerateEd25519Key()
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", algorithm)
	}
}

// WriteSigningKey generates a key and writes it to path with owner-only
// permissions. An existing file is never overwritten.
func WriteSigningKey(path, algorithm string, rsaBits int) error {
	pemKey, err := GenerateSigningKey(algorithm, rsaBits)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating key file: %w", err)
	}
	if _, err := f.Write(pemKey); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing key file: %w", err)
	}
	return f.Close()
}
