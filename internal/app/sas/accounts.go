package sas

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

// On-chain account layouts, borsh encoded behind a one-byte
// discriminator.

type credentialAccount struct {
	Discriminator     uint8
	Authority         [32]byte
	Name              []byte
	AuthorizedSigners [][32]byte
}

type schemaAccount struct {
	Discriminator uint8
	Credential    [32]byte
	Name          []byte
	Description   []byte
	Layout        []byte
	FieldNames    []byte
	IsPaused      bool
	Version       uint8
}

type attestationAccount struct {
	Discriminator uint8
	Nonce         [32]byte
	Credential    [32]byte
	Schema        [32]byte
	Data          []byte
	Signer        [32]byte
	Expiry        int64
	TokenAccount  [32]byte
}

// Byte offsets of attestation fields, for program-account filters.
const (
	AttestationNonceOffset      = 1
	AttestationCredentialOffset = 33
	AttestationSchemaOffset     = 65
)

type Credential struct {
	Authority         solana.PublicKey
	Name              string
	AuthorizedSigners []solana.PublicKey
}

type Schema struct {
	Credential  solana.PublicKey
	Name        string
	Description string
	Layout      []byte
	FieldNames  []string
	IsPaused    bool
	Version     uint8
}

type Attestation struct {
	Nonce        solana.PublicKey
	Credential   solana.PublicKey
	Schema       solana.PublicKey
	Data         []byte
	Signer       solana.PublicKey
	Expiry       int64
	TokenAccount solana.PublicKey
}

func checkDiscriminator(data []byte, want uint8, kind string) error {
	if len(data) == 0 {
		return fmt.Errorf("decode %s: empty account data", kind)
	}
	if data[0] != want {
		return fmt.Errorf("decode %s: discriminator %d, want %d", kind, data[0], want)
	}
	return nil
}

func keys(raw [][32]byte) []solana.PublicKey {
	out := make([]solana.PublicKey, len(raw))
	for i, k := range raw {
		out[i] = k
	}
	return out
}

func DecodeCredential(data []byte) (*Credential, error) {
	if err := checkDiscriminator(data, accountCredential, "credential"); err != nil {
		return nil, err
	}
	var raw credentialAccount
	if err := borsh.Deserialize(&raw, data); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &Credential{
		Authority:         raw.Authority,
		Name:              string(raw.Name),
		AuthorizedSigners: keys(raw.AuthorizedSigners),
	}, nil
}

func (c *Credential) Encode() ([]byte, error) {
	raw := credentialAccount{
		Discriminator: accountCredential,
		Authority:     c.Authority,
		Name:          []byte(c.Name),
	}
	for _, s := range c.AuthorizedSigners {
		raw.AuthorizedSigners = append(raw.AuthorizedSigners, s)
	}
	return borsh.Serialize(raw)
}

// IsSigner reports whether key may sign attestations for c.
func (c *Credential) IsSigner(key solana.PublicKey) bool {
	for _, s := range c.AuthorizedSigners {
		if s.Equals(key) {
			return true
		}
	}
	return false
}

func DecodeSchema(data []byte) (*Schema, error) {
	if err := checkDiscriminator(data, accountSchema, "schema"); err != nil {
		return nil, err
	}
	var raw schemaAccount
	if err := borsh.Deserialize(&raw, data); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	var names []string
	if len(raw.FieldNames) > 0 {
		if err := borsh.Deserialize(&names, raw.FieldNames); err != nil {
			return nil, fmt.Errorf("decode schema field names: %w", err)
		}
	}

	return &Schema{
		Credential:  raw.Credential,
		Name:        string(raw.Name),
		Description: string(raw.Description),
		Layout:      raw.Layout,
		FieldNames:  names,
		IsPaused:    raw.IsPaused,
		Version:     raw.Version,
	}, nil
}

func (s *Schema) Encode() ([]byte, error) {
	names, err := borsh.Serialize(s.FieldNames)
	if err != nil {
		return nil, err
	}
	return borsh.Serialize(schemaAccount{
		Discriminator: accountSchema,
		Credential:    s.Credential,
		Name:          []byte(s.Name),
		Description:   []byte(s.Description),
		Layout:        s.Layout,
		FieldNames:    names,
		IsPaused:      s.IsPaused,
		Version:       s.Version,
	})
}

func DecodeAttestation(data []byte) (*Attestation, error) {
	if err := checkDiscriminator(data, accountAttestation, "attestation"); err != nil {
		return nil, err
	}
	var raw attestationAccount
	if err := borsh.Deserialize(&raw, data); err != nil {
		return nil, fmt.Errorf("decode attestation: %w", err)
	}
	return &Attestation{
		Nonce:        raw.Nonce,
		Credential:   raw.Credential,
		Schema:       raw.Schema,
		Data:         raw.Data,
		Signer:       raw.Signer,
		Expiry:       raw.Expiry,
		TokenAccount: raw.TokenAccount,
	}, nil
}

func (a *Attestation) Encode() ([]byte, error) {
	return borsh.Serialize(attestationAccount{
		Discriminator: accountAttestation,
		Nonce:         a.Nonce,
		Credential:    a.Credential,
		Schema:        a.Schema,
		Data:          a.Data,
		Signer:        a.Signer,
		Expiry:        a.Expiry,
		TokenAccount:  a.TokenAccount,
	})
}

// AttestationDiscriminator is the first byte of every attestation
// account, for program-account filters.
func AttestationDiscriminator() []byte { return []byte{accountAttestation} }
