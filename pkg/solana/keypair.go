package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrInvalidKeypairFile = errors.New("invalid keypair file")
	ErrInvalidAddress     = errors.New("invalid address")
)

// DefaultKeypairPath returns the location the Solana CLI writes its default
// keypair to, or an empty string if the home directory is unknown.
func DefaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

// LoadKeypair reads a Solana CLI keypair file, a JSON array of the 64 bytes
// of the private key (seed followed by public key).
func LoadKeypair(path string) (ed25519.PrivateKey, error) {
	if path == "" {
		return nil, errors.New("keypair path required")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve home directory")
		}
		path = filepath.Join(home, path[2:])
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keypair file %s", path)
	}

	return ParseKeypair(raw)
}

// ParseKeypair decodes the contents of a Solana CLI keypair file.
func ParseKeypair(raw []byte) (ed25519.PrivateKey, error) {
	var values []int
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, errors.Wrap(ErrInvalidKeypairFile, "not a json byte array")
	}
	if len(values) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrInvalidKeypairFile, "expected %d bytes, got %d", ed25519.PrivateKeySize, len(values))
	}

	key := make([]byte, ed25519.PrivateKeySize)
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, errors.Wrapf(ErrInvalidKeypairFile, "byte %d out of range", i)
		}
		key[i] = byte(v)
	}

	// The trailing half must be the public key of the leading seed.
	priv := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	if !bytes.Equal(priv[ed25519.SeedSize:], key[ed25519.SeedSize:]) {
		return nil, errors.Wrap(ErrInvalidKeypairFile, "public key does not match seed")
	}

	return priv, nil
}

// ParseAddress decodes a base58 encoded account address.
func ParseAddress(s string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q is not base58", s)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q decodes to %d bytes", s, len(decoded))
	}
	return decoded, nil
}
