package sas

import (
	"fmt"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/tokenext"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

// Borsh argument layouts. Each starts with the instruction
// discriminator.

type CreateCredentialArgs struct {
	Discriminator uint8
	Name          string
	Signers       [][32]byte
}

type CreateSchemaArgs struct {
	Discriminator uint8
	Name          string
	Description   string
	Layout        []byte
	FieldNames    []string
	Version       uint8
}

type TokenizeSchemaArgs struct {
	Discriminator uint8
	MaxSize       uint64
}

type CreateTokenizedAttestationArgs struct {
	Discriminator    uint8
	Nonce            [32]byte
	Data             []byte
	Expiry           int64
	Name             string
	URI              string
	Symbol           string
	MintAccountSpace uint16
}

type CloseTokenizedAttestationArgs struct {
	Discriminator uint8
}

// Discriminator returns the instruction discriminator of data.
func Discriminator(data []byte) (uint8, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty instruction data")
	}
	return data[0], nil
}

func IsCreateCredential(d uint8) bool           { return d == ixCreateCredential }
func IsCreateSchema(d uint8) bool               { return d == ixCreateSchema }
func IsTokenizeSchema(d uint8) bool             { return d == ixTokenizeSchema }
func IsCreateTokenizedAttestation(d uint8) bool { return d == ixCreateTokenizedAttestation }
func IsCloseTokenizedAttestation(d uint8) bool  { return d == ixCloseTokenizedAttestation }

func (p Program) instruction(args any, accounts ...*solana.AccountMeta) (solana.Instruction, error) {
	data, err := borsh.Serialize(args)
	if err != nil {
		return nil, fmt.Errorf("encode instruction: %w", err)
	}
	return solana.NewInstruction(p.ID, accounts, data), nil
}

type CreateCredentialParams struct {
	Payer     solana.PublicKey
	Authority solana.PublicKey
	Name      string
	Signers   []solana.PublicKey
}

// CreateCredential returns the instruction and the credential address
// it will create. The authority is always an authorized signer.
func (p Program) CreateCredential(params CreateCredentialParams) (solana.Instruction, solana.PublicKey, error) {
	credential, err := p.CredentialAddress(params.Authority, params.Name)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	signers := [][32]byte{params.Authority}
	for _, s := range params.Signers {
		if !s.Equals(params.Authority) {
			signers = append(signers, s)
		}
	}

	ix, err := p.instruction(
		CreateCredentialArgs{Discriminator: ixCreateCredential, Name: params.Name, Signers: signers},
		solana.NewAccountMeta(params.Payer, true, true),
		solana.NewAccountMeta(credential, true, false),
		solana.NewAccountMeta(params.Authority, false, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	)
	return ix, credential, err
}

type CreateSchemaParams struct {
	Payer       solana.PublicKey
	Authority   solana.PublicKey
	Credential  solana.PublicKey
	Name        string
	Description string
	Version     int
	Layout      []byte
	FieldNames  []string
}

func (p Program) CreateSchema(params CreateSchemaParams) (solana.Instruction, solana.PublicKey, error) {
	if len(params.Description) > MaxDescriptionLen {
		return nil, solana.PublicKey{}, apperrors.Invalid("schema description",
			fmt.Sprintf("max %d bytes", MaxDescriptionLen), fmt.Sprintf("%d bytes is too long", len(params.Description)))
	}
	if len(params.Layout) != len(params.FieldNames) {
		return nil, solana.PublicKey{}, apperrors.Invalid("schema layout", "one field name per type",
			fmt.Sprintf("%d types for %d names", len(params.Layout), len(params.FieldNames)))
	}

	schema, err := p.SchemaAddress(params.Credential, params.Name, params.Version)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	ix, err := p.instruction(
		CreateSchemaArgs{
			Discriminator: ixCreateSchema,
			Name:          params.Name,
			Description:   params.Description,
			Layout:        params.Layout,
			FieldNames:    params.FieldNames,
			Version:       uint8(params.Version),
		},
		solana.NewAccountMeta(params.Payer, true, true),
		solana.NewAccountMeta(params.Authority, false, true),
		solana.NewAccountMeta(params.Credential, false, false),
		solana.NewAccountMeta(schema, true, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	)
	return ix, schema, err
}

type TokenizeSchemaParams struct {
	Payer      solana.PublicKey
	Authority  solana.PublicKey
	Credential solana.PublicKey
	Schema     solana.PublicKey
	MaxSize    uint64
}

// TokenizeSchema creates the schema's collection mint. It returns the
// mint address.
func (p Program) TokenizeSchema(params TokenizeSchemaParams) (solana.Instruction, solana.PublicKey, error) {
	if params.MaxSize == 0 {
		return nil, solana.PublicKey{}, apperrors.Invalid("collection size", "at least 1", "0 admits no proof tokens")
	}
	mint, err := p.SchemaMintAddress(params.Schema)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	authority, err := p.Authority()
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	ix, err := p.instruction(
		TokenizeSchemaArgs{Discriminator: ixTokenizeSchema, MaxSize: params.MaxSize},
		solana.NewAccountMeta(params.Payer, true, true),
		solana.NewAccountMeta(params.Authority, false, true),
		solana.NewAccountMeta(params.Credential, false, false),
		solana.NewAccountMeta(params.Schema, false, false),
		solana.NewAccountMeta(mint, true, false),
		solana.NewAccountMeta(authority, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(tokenext.Token2022ProgramID, false, false),
	)
	return ix, mint, err
}

// TokenMetadata is the proof token's on-mint metadata.
type TokenMetadata struct {
	Name   string
	Symbol string
	URI    string
}

func (tm TokenMetadata) validate() error {
	if len(tm.Name) > MaxTokenNameLen {
		return apperrors.Invalid("token name", fmt.Sprintf("max %d bytes", MaxTokenNameLen), "too long")
	}
	if len(tm.Symbol) > MaxTokenSymbolLen {
		return apperrors.Invalid("token symbol", fmt.Sprintf("max %d bytes", MaxTokenSymbolLen), "too long")
	}
	if len(tm.URI) > MaxTokenURILen {
		return apperrors.Invalid("token uri", fmt.Sprintf("max %d bytes", MaxTokenURILen), "too long")
	}
	return nil
}

type CreateTokenizedAttestationParams struct {
	Payer      solana.PublicKey
	Authority  solana.PublicKey
	Credential solana.PublicKey
	Schema     solana.PublicKey
	Nonce      solana.PublicKey
	Recipient  solana.PublicKey
	Data       []byte
	Expiry     int64
	Token      TokenMetadata
}

// TokenizedAttestation lists every address a tokenized attestation
// touches.
type TokenizedAttestation struct {
	Attestation     solana.PublicKey
	SchemaMint      solana.PublicKey
	AttestationMint solana.PublicKey
	TokenAccount    solana.PublicKey
}

func (p Program) CreateTokenizedAttestation(params CreateTokenizedAttestationParams) (solana.Instruction, TokenizedAttestation, error) {
	var out TokenizedAttestation
	if err := params.Token.validate(); err != nil {
		return nil, out, err
	}

	addrs, err := p.TokenizedAttestationAddresses(params.Credential, params.Schema, params.Nonce, params.Recipient)
	if err != nil {
		return nil, out, err
	}
	authority, err := p.Authority()
	if err != nil {
		return nil, out, err
	}

	space, err := tokenext.AttestationMintSpace(tokenext.Metadata{
		Name:   params.Token.Name,
		Symbol: params.Token.Symbol,
		URI:    params.Token.URI,
		Additional: [][2]string{
			{"attestation", addrs.Attestation.String()},
			{"schema", params.Schema.String()},
		},
	})
	if err != nil {
		return nil, out, err
	}

	ix, err := p.instruction(
		CreateTokenizedAttestationArgs{
			Discriminator:    ixCreateTokenizedAttestation,
			Nonce:            params.Nonce,
			Data:             params.Data,
			Expiry:           params.Expiry,
			Name:             params.Token.Name,
			URI:              params.Token.URI,
			Symbol:           params.Token.Symbol,
			MintAccountSpace: space,
		},
		solana.NewAccountMeta(params.Payer, true, true),
		solana.NewAccountMeta(params.Authority, false, true),
		solana.NewAccountMeta(params.Credential, false, false),
		solana.NewAccountMeta(params.Schema, false, false),
		solana.NewAccountMeta(addrs.Attestation, true, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(addrs.SchemaMint, true, false),
		solana.NewAccountMeta(addrs.AttestationMint, true, false),
		solana.NewAccountMeta(authority, false, false),
		solana.NewAccountMeta(addrs.TokenAccount, true, false),
		solana.NewAccountMeta(params.Recipient, false, false),
		solana.NewAccountMeta(tokenext.Token2022ProgramID, false, false),
		solana.NewAccountMeta(tokenext.AssociatedTokenProgramID, false, false),
	)
	return ix, addrs, err
}

// TokenizedAttestationAddresses derives, without any I/O, every
// address CreateTokenizedAttestation will write.
func (p Program) TokenizedAttestationAddresses(credential, schema, nonce, recipient solana.PublicKey) (TokenizedAttestation, error) {
	var out TokenizedAttestation
	var err error

	if out.Attestation, err = p.AttestationAddress(credential, schema, nonce); err != nil {
		return out, err
	}
	if out.SchemaMint, err = p.SchemaMintAddress(schema); err != nil {
		return out, err
	}
	if out.AttestationMint, err = p.AttestationMintAddress(out.Attestation); err != nil {
		return out, err
	}
	if out.TokenAccount, err = tokenext.AssociatedTokenAddress(recipient, out.AttestationMint); err != nil {
		return out, err
	}
	return out, nil
}

type CloseTokenizedAttestationParams struct {
	Payer        solana.PublicKey
	Authority    solana.PublicKey
	Credential   solana.PublicKey
	Schema       solana.PublicKey
	Attestation  solana.PublicKey
	TokenAccount solana.PublicKey
}

// CloseTokenizedAttestation burns the proof token and closes the
// attestation account.
func (p Program) CloseTokenizedAttestation(params CloseTokenizedAttestationParams) (solana.Instruction, error) {
	schemaMint, err := p.SchemaMintAddress(params.Schema)
	if err != nil {
		return nil, err
	}
	attestationMint, err := p.AttestationMintAddress(params.Attestation)
	if err != nil {
		return nil, err
	}
	authority, err := p.Authority()
	if err != nil {
		return nil, err
	}
	eventAuthority, err := p.EventAuthority()
	if err != nil {
		return nil, err
	}

	return p.instruction(
		CloseTokenizedAttestationArgs{Discriminator: ixCloseTokenizedAttestation},
		solana.NewAccountMeta(params.Payer, true, true),
		solana.NewAccountMeta(params.Authority, false, true),
		solana.NewAccountMeta(params.Credential, false, false),
		solana.NewAccountMeta(params.Attestation, true, false),
		solana.NewAccountMeta(eventAuthority, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(p.ID, false, false),
		solana.NewAccountMeta(schemaMint, false, false),
		solana.NewAccountMeta(attestationMint, true, false),
		solana.NewAccountMeta(authority, false, false),
		solana.NewAccountMeta(params.TokenAccount, true, false),
		solana.NewAccountMeta(tokenext.Token2022ProgramID, false, false),
	)
}
