package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/appraisal/pkg/cryptox"
	"github.com/aussiebroadwan/appraisal/pkg/jwtx"
)

// InitSessionKeys builds the KeyManager that signs session tokens.
//
// With AUTH_SIGNING_KEY_FILE set, the PEM on disk is the only signing key and
// sessions survive restarts. Without it a fresh key is generated in memory
// and every session ends with the process.
func InitSessionKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Issuer: cfg.Issuer,
	}

	if cfg.SigningKeyFile != "" {
		pem, err := cryptox.ReadEd25519KeyFile(cfg.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		opts.PEM = pem
		logger.Info("session signing key loaded", "path", cfg.SigningKeyFile)
	} else {
		logger.Info("generating ephemeral session signing key, sessions will not survive restarts")
	}

	km, err := jwtx.NewKeyManager(opts)
	if err != nil {
		return nil, err
	}

	logger.Info("session keys ready", "num_keys", km.NumSigners(), "issuer", cfg.Issuer)
	return km, nil
}
