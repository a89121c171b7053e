package configs

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gorilla/securecookie"
)

type TokenKeys struct {
	AuthKey []byte
	EncKey  []byte
}

func LoadTokenKeys(env ENV) (*TokenKeys, error) {
	if env.AppAuthKey == "" {
		return nil, errors.New("APP_AUTH_KEY environment variable not set")
	}
	if env.AppEncKey == "" {
		return nil, errors.New("APP_ENC_KEY environment variable not set")
	}

	authKey, err := base64.URLEncoding.DecodeString(env.AppAuthKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode APP_AUTH_KEY from Base64: %w", err)
	}
	encKey, err := base64.URLEncoding.DecodeString(env.AppEncKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode APP_ENC_KEY from Base64: %w", err)
	}

	if len(encKey) != 16 && len(encKey) != 24 && len(encKey) != 32 {
		return nil, fmt.Errorf("APP_ENC_KEY has invalid length %d after decoding, must be 16, 24 or 32 bytes", len(encKey))
	}

	return &TokenKeys{AuthKey: authKey, EncKey: encKey}, nil
}

// GenerateTokenKeys prints a fresh key pair to w and writes it to path.
func GenerateTokenKeys(w io.Writer, path string) error {
	authKey := securecookie.GenerateRandomKey(64)
	if authKey == nil {
		return errors.New("could not generate authentication key")
	}

	encKey := securecookie.GenerateRandomKey(32)
	if encKey == nil {
		return errors.New("could not generate encryption key")
	}

	lines := fmt.Sprintf("APP_AUTH_KEY=%s\nAPP_ENC_KEY=%s\n",
		base64.URLEncoding.EncodeToString(authKey),
		base64.URLEncoding.EncodeToString(encKey),
	)

	if _, err := fmt.Fprint(w, lines); err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(lines), 0o600); err != nil {
		return fmt.Errorf("failed to write keys to file %s: %w", path, err)
	}
	return nil
}
