package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/denylist"
	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/metrics"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/cryptox"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/aussiebroadwan/agentgrant/pkg/idx"
	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
	"github.com/aussiebroadwan/agentgrant/pkg/scopex"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
)

// Reasons reported by online verification when a token is not valid.
const (
	ReasonInvalid  = "invalid"
	ReasonExpired  = "expired"
	ReasonRevoked  = "revoked"
	ReasonNotFound = "not_found"
)

// TokenService redeems codes and refresh tokens for grant tokens and
// answers online verification.
type TokenService struct {
	Runtime
	Minter

	Denylist denylist.Denylist
	Audit    *AuditService
}

type ExchangeInput struct {
	Code         string
	AgentID      string
	CodeVerifier string
}

// Exchange redeems an approved authorization code for a root grant. The
// code is single use: the request moves to consumed in the same
// transaction that creates the grant.
func (s *TokenService) Exchange(ctx context.Context, developerID string, in ExchangeInput) (domain.IssuedGrant, error) {
	if in.Code == "" || in.AgentID == "" {
		return domain.IssuedGrant{}, ErrExchangeFields
	}

	now := s.now()
	var (
		issued domain.IssuedGrant
		req    domain.AuthRequest
	)
	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		req, err = tx.AuthRequests().GetAuthRequestByCodeHash(ctx, developerID, cryptox.FingerprintToken(in.Code))
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		if err != nil {
			return err
		}
		if req.AgentID != in.AgentID {
			return ErrInvalidCode
		}
		switch req.Status {
		case domain.AuthRequestApproved:
		case domain.AuthRequestConsumed:
			return ErrCodeUsed
		default:
			return ErrCodeNotApproved
		}
		if req.Expired(now) {
			return ErrCodeExpired
		}
		pkce := pkceBinding{Challenge: req.CodeChallenge, Method: req.CodeChallengeMethod}
		if err := pkce.check(in.CodeVerifier); err != nil {
			return err
		}

		agent, err := tx.Agents().GetAgent(ctx, developerID, req.AgentID)
		if err != nil {
			return err
		}
		if agent.Status != domain.AgentActive {
			return ErrAgentInactive
		}

		ok, err := tx.AuthRequests().ConsumeAuthRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCodeUsed
		}

		g := domain.Grant{
			ID:          idx.NewPrefixed(idx.PrefixGrant),
			AgentID:     req.AgentID,
			PrincipalID: req.PrincipalID,
			DeveloperID: developerID,
			Scopes:      req.Scopes,
			Status:      domain.GrantActive,
			IssuedAt:    now,
			ExpiresAt:   now.Add(req.GrantTTL),
			Audience:    req.Audience,
		}
		if err := tx.Grants().CreateGrant(ctx, g); err != nil {
			return err
		}
		issued, err = s.mint(ctx, tx, g, "", now)
		return err
	})
	if err != nil {
		return domain.IssuedGrant{}, err
	}

	metrics.GrantIssued(metrics.KindExchange)
	s.Audit.Record(ctx, grantEntry(issued.Grant, domain.ActionGrantIssued, map[string]any{
		"authRequestId": req.ID,
		"scopes":        issued.Grant.Scopes,
	}))
	return issued, nil
}

type RefreshInput struct {
	RefreshToken string
	AgentID      string
}

// Refresh rotates a refresh token: the presented one is burned and a new
// token pair is minted for the same grant. The grant's expiry is never
// extended.
func (s *TokenService) Refresh(ctx context.Context, developerID string, in RefreshInput) (domain.IssuedGrant, error) {
	if in.RefreshToken == "" || in.AgentID == "" {
		return domain.IssuedGrant{}, ErrRefreshFields
	}

	now := s.now()
	var issued domain.IssuedGrant
	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(in.RefreshToken))
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidRefresh
		}
		if err != nil {
			return err
		}
		if rt.IsUsed {
			return ErrRefreshUsed
		}
		if !now.Before(rt.ExpiresAt) {
			return ErrRefreshExpired
		}

		g, err := tx.Grants().GetGrant(ctx, developerID, rt.GrantID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidRefresh
		}
		if err != nil {
			return err
		}
		if g.AgentID != in.AgentID {
			return ErrRefreshAgent
		}
		if g.Status == domain.GrantRevoked {
			return ErrGrantRevoked
		}
		if !g.IsActive(now) {
			return ErrGrantExpired
		}

		ok, err := tx.RefreshTokens().MarkRefreshTokenUsed(ctx, rt.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRefreshUsed
		}

		var parentAgentID string
		if g.ParentGrantID != "" {
			parent, err := tx.Grants().GetGrant(ctx, developerID, g.ParentGrantID)
			if err != nil {
				return err
			}
			parentAgentID = parent.AgentID
		}

		issued, err = s.mint(ctx, tx, g, parentAgentID, now)
		return err
	})
	if err != nil {
		return domain.IssuedGrant{}, err
	}

	metrics.GrantIssued(metrics.KindRefresh)
	s.Audit.Record(ctx, grantEntry(issued.Grant, domain.ActionGrantRefreshed, map[string]any{
		"tokenId": issued.TokenID,
	}))
	return issued, nil
}

// Verification is the outcome of online verification. Claims are set
// whenever the signature checked out, even if the token is not valid.
type Verification struct {
	Valid  bool
	Reason string
	Claims *jwtx.Claims
	Grant  *domain.Grant
}

// Verify checks a token online: signature and expiry, then the denylist,
// then the store. The store is consulted even when the denylist is down,
// and a revocation found only in the store is written back to the
// denylist.
func (s *TokenService) Verify(ctx context.Context, developerID, token string) (Verification, error) {
	if token == "" {
		return Verification{}, ErrTokenRequired
	}
	if s.Keys == nil || !s.Keys.IsReady() {
		return Verification{}, ErrKeysNotReady
	}

	v, err := s.verify(ctx, developerID, token)
	if err != nil {
		return Verification{}, err
	}
	if v.Valid {
		metrics.Verification("valid")
	} else {
		metrics.Verification(v.Reason)
	}
	return v, nil
}

func (s *TokenService) verify(ctx context.Context, developerID, token string) (Verification, error) {
	claims, err := s.Keys.Verify(token)
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return Verification{Reason: ReasonExpired}, nil
	case err != nil:
		return Verification{Reason: ReasonInvalid}, nil
	}
	// Another tenant's token looks exactly like an unknown one.
	if claims.DeveloperID != developerID {
		return Verification{Reason: ReasonNotFound}, nil
	}
	v := Verification{Claims: &claims}

	if isDenied(ctx, s.Denylist, denylist.TokenKey(claims.ID), denylist.GrantKey(claims.GrantID)) {
		v.Reason = ReasonRevoked
		return v, nil
	}

	tg, err := query(ctx, s.Runtime, func(ctx context.Context, st store.Store) (domain.TokenGrant, error) {
		return st.GrantTokens().GetTokenGrant(ctx, claims.ID)
	})
	if errors.Is(err, store.ErrNotFound) || (err == nil && tg.Grant.DeveloperID != developerID) {
		v.Reason = ReasonNotFound
		return v, nil
	}
	if err != nil {
		return Verification{}, err
	}
	v.Grant = &tg.Grant

	now := s.now()
	switch {
	case tg.Token.Revoked:
		v.Reason = ReasonRevoked
		publishRevocations(ctx, s.Denylist, map[string]time.Duration{
			denylist.TokenKey(tg.Token.JTI): denylist.TTLUntil(tg.Token.ExpiresAt, now),
		})
	case tg.Grant.Status == domain.GrantRevoked:
		v.Reason = ReasonRevoked
		publishRevocations(ctx, s.Denylist, map[string]time.Duration{
			denylist.GrantKey(tg.Grant.ID): denylist.TTLUntil(tg.Grant.ExpiresAt, now),
		})
	case !tg.Grant.IsActive(now):
		v.Reason = ReasonExpired
	default:
		v.Valid = true
	}
	return v, nil
}

// Introspect is Verify reduced to the RFC 7662 active flag.
func (s *TokenService) Introspect(ctx context.Context, developerID, token string) (Verification, error) {
	return s.Verify(ctx, developerID, token)
}

// RevokeToken revokes one grant token without touching its grant.
func (s *TokenService) RevokeToken(ctx context.Context, developerID, jti string) error {
	now := s.now()
	var (
		tok domain.GrantToken
		g   domain.Grant
	)
	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		tok, err = tx.GrantTokens().RevokeGrantToken(ctx, developerID, jti)
		if errors.Is(err, store.ErrNotFound) {
			return ErrTokenNotFound
		}
		if err != nil {
			return err
		}
		g, err = tx.Grants().GetGrant(ctx, developerID, tok.GrantID)
		return err
	})
	if err != nil {
		return err
	}

	publishRevocations(ctx, s.Denylist, map[string]time.Duration{
		denylist.TokenKey(jti): denylist.TTLUntil(tok.ExpiresAt, now),
	})
	s.Audit.Record(ctx, grantEntry(g, domain.ActionTokenRevoked, map[string]any{"tokenId": jti}))
	return nil
}

type CheckInput struct {
	Token  string
	Scope  string
	Value  *float64
	Action string
}

// CheckResult describes the scope that authorized a resource call.
type CheckResult struct {
	GrantID      string
	MatchedScope scopex.Scope
}

// Check authorizes one resource call on behalf of an adapter: online
// verification, then scope and constraint enforcement. Once the token is
// known to be valid, the outcome is written to the audit log either way.
func (s *TokenService) Check(ctx context.Context, developerID string, in CheckInput) (CheckResult, error) {
	in.Scope = strings.TrimSpace(in.Scope)
	if in.Token == "" || in.Scope == "" {
		return CheckResult{}, ErrCheckFields
	}

	v, err := s.Verify(ctx, developerID, in.Token)
	if err != nil {
		return CheckResult{}, err
	}
	if !v.Valid {
		switch v.Reason {
		case ReasonExpired:
			return CheckResult{}, ErrTokenExpired
		case ReasonRevoked:
			return CheckResult{}, ErrTokenRevoked
		default:
			return CheckResult{}, ErrTokenInvalid
		}
	}

	meta := map[string]any{"scope": in.Scope}
	if in.Action != "" {
		meta["action"] = in.Action
	}
	if in.Value != nil {
		meta["value"] = *in.Value
	}

	matched, err := scopex.Enforce(v.Claims.Scopes, in.Scope, in.Value)
	if err != nil {
		var cerr *scopex.ConstraintError
		var out *Error
		switch {
		case errors.As(err, &cerr):
			out = Errorf(httpx.CodeConstraintViolated, "%s", cerr.Error())
		case errors.Is(err, scopex.ErrScopeMissing):
			out = Errorf(httpx.CodeScopeMissing, "Grant does not include scope %s", in.Scope)
		default:
			return CheckResult{}, err
		}
		meta["reason"] = out.Message
		s.recordCheck(ctx, v, domain.AuditBlocked, meta)
		return CheckResult{}, out
	}

	meta["matchedScope"] = matched.Raw
	s.recordCheck(ctx, v, domain.AuditSuccess, meta)
	return CheckResult{GrantID: v.Claims.GrantID, MatchedScope: matched}, nil
}

func (s *TokenService) recordCheck(ctx context.Context, v Verification, status domain.AuditStatus, meta map[string]any) {
	e := grantEntry(*v.Grant, domain.ActionTokenCheck, meta)
	e.Status = status
	s.Audit.Record(ctx, e)
	if status == domain.AuditBlocked {
		slogx.FromContext(ctx).Info("resource call blocked", "grant_id", v.Grant.ID, "scope", meta["scope"])
	}
}

func grantEntry(g domain.Grant, action string, meta map[string]any) domain.AuditEntry {
	return domain.AuditEntry{
		DeveloperID: g.DeveloperID,
		AgentID:     g.AgentID,
		AgentDID:    domain.AgentDID(g.AgentID),
		GrantID:     g.ID,
		PrincipalID: g.PrincipalID,
		Action:      action,
		Metadata:    meta,
	}
}
