package authsdk

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPKCEChallenge(t *testing.T) {
	t.Parallel()

	a, err := GeneratePKCEChallenge()
	require.NoError(t, err)
	b, err := GeneratePKCEChallenge()
	require.NoError(t, err)
	require.NotEqual(t, a.Verifier, b.Verifier)

	// RFC 7636 bounds the verifier to 43..128 characters.
	require.GreaterOrEqual(t, len(a.Verifier), 43)
	require.LessOrEqual(t, len(a.Verifier), 128)

	sum := sha256.Sum256([]byte(a.Verifier))
	require.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), a.Challenge)

	req := AuthorizeRequest{AgentID: "ag_1"}
	a.Apply(&req)
	require.Equal(t, a.Challenge, req.CodeChallenge)
	require.Equal(t, "S256", req.CodeChallengeMethod)
	require.Equal(t, "ag_1", req.AgentID)
}

func TestConsentPageURL(t *testing.T) {
	t.Parallel()

	c := NewSDKClient("https://grants.example.com/")
	require.Equal(t, "https://grants.example.com/consent?req=areq_01ABC", c.ConsentPageURL("areq_01ABC"))
	require.Equal(t, "https://grants.example.com/consent?req=a%26b", c.ConsentPageURL("a&b"))
}
