package authsdk

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/aussiebroadwan/agentgrant/pkg/cryptox"
)

// PKCEChallenge binds an authorization code to the agent that asked for
// it. Send Challenge with Authorize and keep Verifier for ExchangeCode.
type PKCEChallenge struct {
	Verifier  string
	Challenge string
	Method    string
}

// GeneratePKCEChallenge returns a fresh S256 pair with a 256-bit verifier.
func GeneratePKCEChallenge() (*PKCEChallenge, error) {
	verifier, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("authsdk: PKCE verifier: %w", err)
	}
	sum := sha256.Sum256([]byte(verifier))
	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: base64.RawURLEncoding.EncodeToString(sum[:]),
		Method:    "S256",
	}, nil
}

// Apply copies the challenge onto req.
func (p *PKCEChallenge) Apply(req *AuthorizeRequest) {
	req.CodeChallenge = p.Challenge
	req.CodeChallengeMethod = p.Method
}

// ConsentPageURL is the link a principal opens to review an authorization
// request. Authorize returns the same link as consentUrl.
func (c *SDKClient) ConsentPageURL(authRequestID string) string {
	return c.url("/consent") + "?" + url.Values{"req": {authRequestID}}.Encode()
}
