package sas

import (
	"fmt"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"

	"github.com/gagliardetto/solana-go"
)

// ValidateSeedName rejects names that cannot be used as a seed.
func ValidateSeedName(field, name string) error {
	if name == "" {
		return apperrors.Invalid(field, fmt.Sprintf("1..%d bytes", MaxSeedLength), "must not be empty")
	}
	if len(name) > MaxSeedLength {
		return apperrors.Invalid(field, fmt.Sprintf("max %d bytes", MaxSeedLength),
			fmt.Sprintf("%d bytes is too long", len(name)))
	}
	return nil
}

func ValidateSchemaVersion(version int) error {
	if version < MinSchemaVersion || version > MaxSchemaVersion {
		return apperrors.Invalid("schema version", fmt.Sprintf("%d..%d", MinSchemaVersion, MaxSchemaVersion),
			fmt.Sprintf("%d is out of range", version))
	}
	return nil
}

func (p Program) find(seeds ...[]byte) (solana.PublicKey, error) {
	address, _, err := solana.FindProgramAddress(seeds, p.ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive program address: %w", err)
	}
	return address, nil
}

func (p Program) CredentialAddress(authority solana.PublicKey, name string) (solana.PublicKey, error) {
	if err := ValidateSeedName("credential name", name); err != nil {
		return solana.PublicKey{}, err
	}
	return p.find([]byte(seedCredential), authority.Bytes(), []byte(name))
}

func (p Program) SchemaAddress(credential solana.PublicKey, name string, version int) (solana.PublicKey, error) {
	if err := ValidateSeedName("schema name", name); err != nil {
		return solana.PublicKey{}, err
	}
	if err := ValidateSchemaVersion(version); err != nil {
		return solana.PublicKey{}, err
	}
	return p.find([]byte(seedSchema), credential.Bytes(), []byte(name), []byte{uint8(version)})
}

func (p Program) AttestationAddress(credential, schema, nonce solana.PublicKey) (solana.PublicKey, error) {
	return p.find([]byte(seedAttestation), credential.Bytes(), schema.Bytes(), nonce.Bytes())
}

// SchemaMintAddress is the collection mint of a tokenized schema.
func (p Program) SchemaMintAddress(schema solana.PublicKey) (solana.PublicKey, error) {
	return p.find([]byte(seedSchemaMint), schema.Bytes())
}

// AttestationMintAddress is the proof-token mint of an attestation.
func (p Program) AttestationMintAddress(attestation solana.PublicKey) (solana.PublicKey, error) {
	return p.find([]byte(seedAttestationMint), attestation.Bytes())
}

// Authority is the program's own signer over tokenized mints.
func (p Program) Authority() (solana.PublicKey, error) {
	return p.find([]byte(seedProgramAuthority))
}

func (p Program) EventAuthority() (solana.PublicKey, error) {
	return p.find([]byte(seedEventAuthority))
}
