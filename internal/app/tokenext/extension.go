// Package tokenext describes the Token-2022 mints the attestation
// service creates for tokenized schemas and attestations: the closed
// set of mint extensions in use, the account space they need, and the
// token accounts that hold the resulting proof tokens.
package tokenext

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	Token2022ProgramID       = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// Extension is one Token-2022 mint extension. The values are the
// token program's extension type numbers.
type Extension uint16

const (
	MintCloseAuthority Extension = 3
	NonTransferable    Extension = 9
	PermanentDelegate  Extension = 12
	MetadataPointer    Extension = 18
	TokenMetadata      Extension = 19
	GroupPointer       Extension = 20
	GroupMemberPointer Extension = 22
	TokenGroupMember   Extension = 23
)

var extensionNames = map[Extension]string{
	MintCloseAuthority: "mint-close-authority",
	NonTransferable:    "non-transferable",
	PermanentDelegate:  "permanent-delegate",
	MetadataPointer:    "metadata-pointer",
	TokenMetadata:      "token-metadata",
	GroupPointer:       "group-pointer",
	GroupMemberPointer: "group-member-pointer",
	TokenGroupMember:   "token-group-member",
}

func (e Extension) String() string {
	if name, ok := extensionNames[e]; ok {
		return name
	}
	return fmt.Sprintf("extension(%d)", uint16(e))
}

func (e Extension) Valid() bool {
	_, ok := extensionNames[e]
	return ok
}

// FixedSize returns the extension's data length. TokenMetadata has no
// fixed size and reports false.
func (e Extension) FixedSize() (int, bool) {
	switch e {
	case NonTransferable:
		return 0, true
	case MintCloseAuthority, PermanentDelegate:
		return 32, true
	case MetadataPointer, GroupPointer, GroupMemberPointer:
		return 64, true
	case TokenGroupMember:
		return 72, true
	default:
		return 0, false
	}
}

// AttestationMintExtensions is the extension set of a proof-token mint.
var AttestationMintExtensions = []Extension{
	GroupMemberPointer,
	NonTransferable,
	MetadataPointer,
	PermanentDelegate,
	MintCloseAuthority,
	TokenGroupMember,
}
