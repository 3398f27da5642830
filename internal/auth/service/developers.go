package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/cryptox"
	"github.com/aussiebroadwan/agentgrant/pkg/idx"
)

// APIKeyPrefix starts every developer API key: agk_<keyId>_<secret>.
const APIKeyPrefix = "agk_"

// DeveloperService manages tenants and their API keys.
type DeveloperService struct {
	Runtime

	// BootstrapToken guards self-service signup. Empty disables it.
	BootstrapToken string
}

type CreateDeveloperInput struct {
	Name  string
	Email string
	Mode  domain.DeveloperMode
	Plan  domain.Plan
}

// DeveloperCredentials is returned once, when a key is minted. The key
// itself is never stored.
type DeveloperCredentials struct {
	Developer domain.Developer
	APIKey    string
}

// CheckBootstrap validates the signup header value.
func (s *DeveloperService) CheckBootstrap(token string) error {
	if s.BootstrapToken == "" {
		return ErrBootstrapDisabled
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.BootstrapToken)) != 1 {
		return ErrBootstrapMismatch
	}
	return nil
}

// Create registers a tenant and mints its first API key.
func (s *DeveloperService) Create(ctx context.Context, in CreateDeveloperInput) (DeveloperCredentials, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" {
		return DeveloperCredentials{}, ErrDeveloperFields
	}
	if in.Mode == "" {
		in.Mode = domain.ModeLive
	}
	if in.Mode != domain.ModeLive && in.Mode != domain.ModeSandbox {
		return DeveloperCredentials{}, ErrDeveloperMode
	}
	if in.Plan == "" {
		in.Plan = domain.PlanFree
	}
	if !ValidPlan(in.Plan) {
		return DeveloperCredentials{}, ErrDeveloperPlan
	}

	keyID, key, hash, err := newAPIKey()
	if err != nil {
		return DeveloperCredentials{}, err
	}

	now := s.now()
	dev := domain.Developer{
		ID:         idx.NewPrefixed(idx.PrefixDeveloper),
		Name:       in.Name,
		Email:      in.Email,
		Mode:       in.Mode,
		Plan:       in.Plan,
		APIKeyID:   keyID,
		APIKeyHash: hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Developers().CreateDeveloper(ctx, dev)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return DeveloperCredentials{}, ErrEmailTaken
	}
	if err != nil {
		return DeveloperCredentials{}, err
	}

	return DeveloperCredentials{Developer: dev, APIKey: key}, nil
}

// Authenticate resolves an API key to its developer. Every failure looks
// the same to the caller.
func (s *DeveloperService) Authenticate(ctx context.Context, apiKey string) (domain.Developer, error) {
	keyID, secret, ok := splitAPIKey(apiKey)
	if !ok {
		return domain.Developer{}, ErrUnauthorized
	}

	dev, err := query(ctx, s.Runtime, func(ctx context.Context, st store.Store) (domain.Developer, error) {
		return st.Developers().GetDeveloperByAPIKeyID(ctx, keyID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.Developer{}, ErrUnauthorized
	}
	if err != nil {
		return domain.Developer{}, err
	}

	if err := cryptox.VerifySecret(secret, dev.APIKeyHash); err != nil {
		return domain.Developer{}, ErrUnauthorized
	}
	return dev, nil
}

// RotateKey replaces the developer's API key and returns the new one.
func (s *DeveloperService) RotateKey(ctx context.Context, developerID string) (DeveloperCredentials, error) {
	keyID, key, hash, err := newAPIKey()
	if err != nil {
		return DeveloperCredentials{}, err
	}

	var dev domain.Developer
	now := s.now()
	err = s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Developers().RotateAPIKey(ctx, developerID, keyID, hash, now); err != nil {
			return err
		}
		var err error
		dev, err = tx.Developers().GetDeveloperByID(ctx, developerID)
		return err
	})
	if err != nil {
		return DeveloperCredentials{}, err
	}
	return DeveloperCredentials{Developer: dev, APIKey: key}, nil
}

// Profile is a developer together with its plan consumption.
type Profile struct {
	Developer domain.Developer
	Usage     domain.Usage
	Limits    PlanLimits
}

func (s *DeveloperService) Profile(ctx context.Context, developerID string) (Profile, error) {
	var p Profile
	now := s.now()
	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if p.Developer, err = tx.Developers().GetDeveloperByID(ctx, developerID); err != nil {
			return err
		}
		p.Usage, err = tx.Developers().GetUsage(ctx, developerID, now)
		return err
	})
	if err != nil {
		return Profile{}, err
	}
	p.Limits = LimitsFor(p.Developer.Plan)
	return p, nil
}

func newAPIKey() (keyID, key, hash string, err error) {
	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", "", "", err
	}
	hash, err = cryptox.HashSecret(secret)
	if err != nil {
		return "", "", "", err
	}
	keyID = strings.ToLower(idx.New().String())
	return keyID, APIKeyPrefix + keyID + "_" + secret, hash, nil
}

// splitAPIKey parses agk_<keyId>_<secret>. The key id never contains an
// underscore; the secret may.
func splitAPIKey(key string) (keyID, secret string, ok bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(key), APIKeyPrefix)
	if !ok {
		return "", "", false
	}
	keyID, secret, ok = strings.Cut(rest, "_")
	if !ok || keyID == "" || secret == "" {
		return "", "", false
	}
	return keyID, secret, true
}
