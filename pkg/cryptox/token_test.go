package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	for _, size := range []int{TokenSize128, TokenSize256, 24} {
		seen := make(map[string]struct{}, 50)
		for range 50 {
			tok, err := GenerateToken(size)
			require.NoError(t, err)

			raw, err := base64.RawURLEncoding.DecodeString(tok)
			require.NoError(t, err)
			require.Len(t, raw, size)

			require.NotContains(t, seen, tok)
			seen[tok] = struct{}{}
		}
	}

	for _, size := range []int{0, -1} {
		tok, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, tok)
	}
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	code := "authorization-code"
	require.Equal(t, FingerprintToken(code), FingerprintToken(code))
	require.NotEqual(t, FingerprintToken(code), FingerprintToken(code+"x"))
	require.Len(t, FingerprintToken(code), 43)
}

func TestHexDigest(t *testing.T) {
	t.Parallel()

	// sha256("") is a well known constant.
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HexDigest(nil))
	require.Len(t, HexDigest([]byte("agentgrant")), 64)
}
