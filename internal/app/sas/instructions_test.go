package sas

import (
	"strings"
	"testing"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/tokenext"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCredentialInstruction(t *testing.T) {
	payer, authority, extra := newKey(), newKey(), newKey()

	ix, credential, err := Default.CreateCredential(CreateCredentialParams{
		Payer:     payer,
		Authority: authority,
		Name:      "agent-proof",
		Signers:   []solana.PublicKey{authority, extra},
	})
	require.NoError(t, err)

	expected, err := Default.CredentialAddress(authority, "agent-proof")
	require.NoError(t, err)
	assert.Equal(t, expected, credential)
	assert.Equal(t, ProgramID, ix.ProgramID())

	accounts := ix.Accounts()
	require.Len(t, accounts, 4)
	assert.Equal(t, payer, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsSigner)
	assert.Equal(t, credential, accounts[1].PublicKey)
	assert.True(t, accounts[1].IsWritable)

	data, err := ix.Data()
	require.NoError(t, err)
	d, err := Discriminator(data)
	require.NoError(t, err)
	assert.True(t, IsCreateCredential(d))

	var args CreateCredentialArgs
	require.NoError(t, borsh.Deserialize(&args, data))
	assert.Equal(t, "agent-proof", args.Name)
	require.Len(t, args.Signers, 2, "authority is not duplicated")
	assert.Equal(t, [32]byte(authority), args.Signers[0])
	assert.Equal(t, [32]byte(extra), args.Signers[1])
}

func TestCreateSchemaInstructionValidation(t *testing.T) {
	base := CreateSchemaParams{
		Payer:      newKey(),
		Authority:  newKey(),
		Credential: newKey(),
		Name:       "agent-identity",
		Version:    1,
		Layout:     []byte{12, 12},
		FieldNames: []string{"agent_name", "platform"},
	}

	_, schema, err := Default.CreateSchema(base)
	require.NoError(t, err)
	expected, err := Default.SchemaAddress(base.Credential, base.Name, 1)
	require.NoError(t, err)
	assert.Equal(t, expected, schema)

	mismatched := base
	mismatched.FieldNames = []string{"agent_name"}
	_, _, err = Default.CreateSchema(mismatched)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "schema layout", verr.Field)

	longDescription := base
	longDescription.Description = strings.Repeat("d", MaxDescriptionLen+1)
	_, _, err = Default.CreateSchema(longDescription)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "schema description", verr.Field)
}

func TestCreateTokenizedAttestationAddresses(t *testing.T) {
	params := CreateTokenizedAttestationParams{
		Payer:      newKey(),
		Authority:  newKey(),
		Credential: newKey(),
		Schema:     newKey(),
		Nonce:      newKey(),
		Recipient:  newKey(),
		Data:       []byte{1, 2, 3},
		Expiry:     1_800_000_000,
		Token:      TokenMetadata{Name: "Agent Proof", Symbol: "AGENT", URI: "https://example.org"},
	}

	ix, addrs, err := Default.CreateTokenizedAttestation(params)
	require.NoError(t, err)

	attestation, err := Default.AttestationAddress(params.Credential, params.Schema, params.Nonce)
	require.NoError(t, err)
	assert.Equal(t, attestation, addrs.Attestation)

	ata, err := tokenext.AssociatedTokenAddress(params.Recipient, addrs.AttestationMint)
	require.NoError(t, err)
	assert.Equal(t, ata, addrs.TokenAccount)

	data, err := ix.Data()
	require.NoError(t, err)
	var args CreateTokenizedAttestationArgs
	require.NoError(t, borsh.Deserialize(&args, data))
	assert.True(t, IsCreateTokenizedAttestation(args.Discriminator))
	assert.Equal(t, [32]byte(params.Nonce), args.Nonce)
	assert.Equal(t, params.Data, args.Data)
	assert.Equal(t, params.Expiry, args.Expiry)
	assert.Greater(t, args.MintAccountSpace, uint16(166))

	params.Token.Symbol = "TOOLONGSYMBOL"
	_, _, err = Default.CreateTokenizedAttestation(params)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "token symbol", verr.Field)
}

func TestCloseTokenizedAttestationInstruction(t *testing.T) {
	params := CloseTokenizedAttestationParams{
		Payer:        newKey(),
		Authority:    newKey(),
		Credential:   newKey(),
		Schema:       newKey(),
		Attestation:  newKey(),
		TokenAccount: newKey(),
	}
	ix, err := Default.CloseTokenizedAttestation(params)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{11}, data)

	accounts := ix.Accounts()
	assert.Equal(t, params.Attestation, accounts[3].PublicKey)
	assert.True(t, accounts[3].IsWritable)
	assert.Equal(t, params.TokenAccount, accounts[10].PublicKey)
}

func TestDiscriminatorEmpty(t *testing.T) {
	_, err := Discriminator(nil)
	assert.Error(t, err)
}

func TestTokenizeSchemaCarriesMaxSize(t *testing.T) {
	params := TokenizeSchemaParams{
		Payer:      newKey(),
		Authority:  newKey(),
		Credential: newKey(),
		Schema:     newKey(),
		MaxSize:    DefaultCollectionSize,
	}

	ix, mint, err := Default.TokenizeSchema(params)
	require.NoError(t, err)
	expected, err := Default.SchemaMintAddress(params.Schema)
	require.NoError(t, err)
	assert.Equal(t, expected, mint)

	data, err := ix.Data()
	require.NoError(t, err)
	var args TokenizeSchemaArgs
	require.NoError(t, borsh.Deserialize(&args, data))
	assert.True(t, IsTokenizeSchema(args.Discriminator))
	assert.Equal(t, DefaultCollectionSize, args.MaxSize)

	params.MaxSize = 0
	_, _, err = Default.TokenizeSchema(params)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "collection size", verr.Field)
}
