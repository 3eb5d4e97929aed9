package cryptox_test

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/appraisal/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateEd25519Key(t *testing.T) {
	pemBytes, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	block, _ := pem.Decode(pemBytes)
	require.NotNil(t, block)
	require.Equal(t, "PRIVATE KEY", block.Type)

	keyInterface, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)

	key, ok := keyInterface.(ed25519.PrivateKey)
	require.True(t, ok)
	require.Len(t, key, ed25519.PrivateKeySize)
}

func TestReadEd25519KeyFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("round trips a generated key", func(t *testing.T) {
		pemBytes, err := cryptox.GenerateEd25519Key()
		require.NoError(t, err)

		path := filepath.Join(dir, "signing.pem")
		require.NoError(t, os.WriteFile(path, pemBytes, 0o600))

		loaded, err := cryptox.ReadEd25519KeyFile(path)
		require.NoError(t, err)
		require.Equal(t, pemBytes, loaded)
	})

	t.Run("rejects non pem content", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.pem")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

		_, err := cryptox.ReadEd25519KeyFile(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := cryptox.ReadEd25519KeyFile(filepath.Join(dir, "nope.pem"))
		require.Error(t, err)
	})
}
