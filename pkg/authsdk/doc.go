/*
Package authsdk provides a client SDK for the agentgrant authorization
control plane, plus the pieces a resource adapter needs to enforce grant
tokens on its own.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: public operations (health, JWKS, consent, developer signup)
  - Session: operations authenticated with a developer API key

	client := authsdk.NewSDKClient("https://grants.example.com")

	creds, err := client.CreateDeveloper(ctx, bootstrapToken, authsdk.CreateDeveloperRequest{
		Name:  "Acme",
		Email: "ops@acme.example",
	})
	session := client.WithAPIKey(creds.APIKey)

# Authorization Flow

An agent asks for scopes on behalf of a principal. Unless the tenant is in
sandbox mode or an allow policy matches, the principal approves on the
consent page and the agent redeems the code:

	pkce, _ := authsdk.GeneratePKCEChallenge()
	req := authsdk.AuthorizeRequest{
		AgentID:     agent.AgentID,
		PrincipalID: "user_42",
		Scopes:      []string{"payments:initiate:max_500"},
	}
	pkce.Apply(&req)

	ar, err := session.Authorize(ctx, req)
	// send the principal to ar.ConsentURL, receive the code ...

	tok, err := session.ExchangeCode(ctx, authsdk.TokenRequest{
		Code:         code,
		AgentID:      agent.AgentID,
		CodeVerifier: pkce.Verifier,
	})

Refresh tokens are single use; every RefreshGrant returns a new one.
Delegate hands a narrower grant to a sub-agent, and RevokeGrant revokes a
grant together with everything delegated from it.

# Resource Adapters

A service that accepts grant tokens has two options.

Online, through the control plane. Revocation is seen immediately:

	res, err := session.CheckToken(ctx, authsdk.CheckRequest{
		Token: token,
		Scope: "payments:initiate",
		Value: &amount,
	})

Offline, against the published JWKS. No round trip per call, but a revoked
token is accepted until it expires:

	verifier := authsdk.NewOfflineVerifier(client, jwtx.VerifyOptions{Issuer: "agentgrant"})
	guard := &authsdk.Guard{
		Verifier: verifier,
		Audit:    authsdk.SessionAudit(session, "payments.initiate"),
	}
	decision, err := guard.Check(ctx, token, "payments:initiate", &amount)

OfflineVerifier also plugs into httpx.AuthnMiddleware, which pairs with
httpx.RequireScope and httpx.RequireConstraint for net/http handlers.

# Error Handling

Every non-2xx response is returned as *APIError carrying the service's
message, error code and request id:

	_, err := session.RefreshGrant(ctx, req)
	if authsdk.IsCode(err, authsdk.CodeBadRequest) {
		// refresh token already used, expired or revoked
	}

# Thread Safety

SDKClient, Session, OfflineVerifier and Guard are safe for concurrent use.
Requests already in flight when RotateKey succeeds still carry the old key
and fail with UNAUTHORIZED.
*/
package authsdk
