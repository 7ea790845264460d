// Package addresses persists the deployment summary written by init and
// read back by the commands that issue or look up attestations.
package addresses

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/pkg/utilities"

	"github.com/gagliardetto/solana-go"
)

const DefaultFile = "addresses.json"

type Agent struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Platform     string   `json:"platform"`
	Capabilities []string `json:"capabilities"`
}

type Deployment struct {
	Network          string `json:"network"`
	Authority        string `json:"authority"`
	Credential       string `json:"credential"`
	CredentialName   string `json:"credential_name"`
	Schema           string `json:"schema"`
	SchemaName       string `json:"schema_name"`
	SchemaVersion    int    `json:"schema_version"`
	SchemaCollection string `json:"schema_collection"`
	Agent            Agent  `json:"agent"`
}

// Keys is a Deployment with its addresses parsed.
type Keys struct {
	Authority        solana.PublicKey
	Credential       solana.PublicKey
	Schema           solana.PublicKey
	SchemaCollection solana.PublicKey
}

// Load reads the summary at path. A missing file is a NotFoundError
// pointing the operator at init.
func Load(path string) (*Deployment, error) {
	deployment, err := utilities.ReadJSON[Deployment](path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &apperrors.NotFoundError{Kind: "deployment summary (run init)", Address: path}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &deployment, nil
}

func Save(path string, deployment *Deployment) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := utilities.WriteJSON(path, deployment, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (d *Deployment) Keys() (Keys, error) {
	var keys Keys
	fields := []struct {
		name  string
		value string
		dst   *solana.PublicKey
	}{
		{"authority", d.Authority, &keys.Authority},
		{"credential", d.Credential, &keys.Credential},
		{"schema", d.Schema, &keys.Schema},
		{"schema_collection", d.SchemaCollection, &keys.SchemaCollection},
	}
	for _, f := range fields {
		key, err := solana.PublicKeyFromBase58(f.value)
		if err != nil {
			return Keys{}, apperrors.Invalid("addresses."+f.name, "base58 address", err.Error())
		}
		*f.dst = key
	}
	return keys, nil
}
