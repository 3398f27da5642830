package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "cryptox")
	if err != nil {
		panic(err)
	}
	SetPepperPath(filepath.Join(dir, "nested", "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestHashSecret(t *testing.T) {
	t.Parallel()

	secrets := map[string]string{
		"api key secret": "6hY0mQm1b7p3Xq_vT9sZ2dN4kLwE8rUaC5jHfGyBiOo",
		"empty":          "",
		"unicode":        "пароль🔒密码",
		"whitespace":     "   spaces   ",
	}

	for name, secret := range secrets {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			hash, err := HashSecret(secret)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$"), hash)
			require.NoError(t, VerifySecret(secret, hash))
			require.ErrorIs(t, VerifySecret(secret+"x", hash), ErrSecretMismatch)

			again, err := HashSecret(secret)
			require.NoError(t, err)
			require.NotEqual(t, hash, again, "salts must differ")
		})
	}
}

func TestVerifySecretMalformed(t *testing.T) {
	t.Parallel()

	good, err := HashSecret("s3cret")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	tests := map[string]string{
		"empty":         "",
		"bcrypt":        "$2a$10$abcdefghijklmnopqrstuv",
		"wrong version": strings.Join([]string{"", "argon2id", "v=16", parts[3], parts[4], parts[5]}, "$"),
		"bad params":    strings.Join([]string{"", "argon2id", "v=19", "m=x", parts[4], parts[5]}, "$"),
		"bad salt":      strings.Join([]string{"", "argon2id", "v=19", parts[3], "!!", parts[5]}, "$"),
		"empty hash":    strings.Join([]string{"", "argon2id", "v=19", parts[3], parts[4], ""}, "$"),
	}

	for name, encoded := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, VerifySecret("s3cret", encoded), ErrMalformedHash)
		})
	}
}

func TestPepperPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pepper")

	first, err := loadOrCreatePepper(path)
	require.NoError(t, err)
	second, err := loadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))
	_, err = loadOrCreatePepper(path)
	require.Error(t, err, "empty pepper file is refused")
}
