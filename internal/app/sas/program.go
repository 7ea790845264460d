// Package sas speaks to the Solana Attestation Service program: it
// derives the program addresses of credentials, schemas and
// attestations, builds the program's instructions and decodes its
// accounts. The program itself is external; nothing here reimplements
// its validation.
package sas

import (
	"github.com/gagliardetto/solana-go"
)

var ProgramID = solana.MustPublicKeyFromBase58("22zoJMtdu4tQc2PzL74ZUT7FrwgB1Udec8DdW4yw4BdG")

const (
	seedCredential       = "credential"
	seedSchema           = "schema"
	seedAttestation      = "attestation"
	seedSchemaMint       = "schemaMint"
	seedAttestationMint  = "attestationMint"
	seedProgramAuthority = "sas"
	seedEventAuthority   = "__event_authority"
)

// Input bounds. Names are PDA seeds, so they share the seed limit.
const (
	MaxSeedLength     = 32
	MaxDescriptionLen = 256
	MaxTokenNameLen   = 32
	MaxTokenSymbolLen = 10
	MaxTokenURILen    = 200
	MinSchemaVersion  = 1
	MaxSchemaVersion  = 255
)

// DefaultCollectionSize is the token-group max size of a schema
// collection. Every proof token issued under the schema joins the group
// and counts against it.
const DefaultCollectionSize uint64 = 1_000_000

// Instruction discriminators.
const (
	ixCreateCredential           uint8 = 0
	ixCreateSchema               uint8 = 1
	ixTokenizeSchema             uint8 = 9
	ixCreateTokenizedAttestation uint8 = 10
	ixCloseTokenizedAttestation  uint8 = 11
)

// Account discriminators.
const (
	accountCredential  uint8 = 0
	accountSchema      uint8 = 1
	accountAttestation uint8 = 2
)

// Program is a deployment of the attestation service. Default targets
// the canonical program id; localnet deployments may use another.
type Program struct {
	ID solana.PublicKey
}

var Default = Program{ID: ProgramID}

func NewProgram(id solana.PublicKey) Program {
	if id.IsZero() {
		return Default
	}
	return Program{ID: id}
}
