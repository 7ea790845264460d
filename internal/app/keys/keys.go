// Package keys manages local keypair files in the solana-keygen format:
// a JSON array of the 64 secret-key bytes.
package keys

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"

	"github.com/gagliardetto/solana-go"
)

// DefaultPath is the solana CLI's default keypair location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "solana", "id.json")
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

// ExpandHome resolves a leading "~/" against the user's home.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Exists reports whether a file is present at path. It says nothing
// about whether the file holds a valid key.
func Exists(path string) bool {
	_, err := os.Stat(ExpandHome(path))
	return !errors.Is(err, os.ErrNotExist)
}

func Load(path string) (solana.PrivateKey, error) {
	path = ExpandHome(path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.Invalid("keypair", "existing keypair file",
			fmt.Sprintf("%s does not exist (run keygen)", path))
	}

	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, apperrors.Invalid("keypair", "64-byte JSON array", fmt.Sprintf("reading %s: %v", path, err))
	}
	return key, nil
}

// Save writes key to path with owner-only permissions. An existing
// file is never replaced.
func Save(path string, key solana.PrivateKey) error {
	path = ExpandHome(path)
	if _, err := os.Stat(path); err == nil {
		return &apperrors.AlreadyExistsError{Kind: "keypair file", Address: path}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create keypair directory: %w", err)
	}

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create keypair file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("write keypair file: %w", err)
	}
	return file.Close()
}

// Generate creates and saves a fresh keypair.
func Generate(path string) (solana.PrivateKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	if err := Save(path, key); err != nil {
		return nil, err
	}
	return key, nil
}
