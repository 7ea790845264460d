package tokenext

import (
	"fmt"
	"math"
)

const (
	mintSize        = 82
	baseAccountSize = 165
	accountTypeSize = 1
	tlvTypeSize     = 2
	tlvLengthSize   = 2
	multisigSize    = 355
	pubkeySize      = 32
	lengthPrefix    = 4
)

// Metadata is the on-mint token metadata of a proof token.
type Metadata struct {
	Name       string
	Symbol     string
	URI        string
	Additional [][2]string
}

// PackedLen is the metadata's serialized length: update authority,
// mint, three length-prefixed strings and the key/value list.
func (m Metadata) PackedLen() int {
	n := pubkeySize + pubkeySize
	n += lengthPrefix + len(m.Name)
	n += lengthPrefix + len(m.Symbol)
	n += lengthPrefix + len(m.URI)
	n += lengthPrefix
	for _, kv := range m.Additional {
		n += lengthPrefix + len(kv[0]) + lengthPrefix + len(kv[1])
	}
	return n
}

func tlv(dataLen int) int {
	return tlvTypeSize + tlvLengthSize + dataLen
}

// MintLen returns the account space of a mint carrying extensions and,
// when metadata is non-nil, an embedded TokenMetadata entry.
func MintLen(extensions []Extension, metadata *Metadata) (int, error) {
	if len(extensions) == 0 && metadata == nil {
		return mintSize, nil
	}

	total := baseAccountSize + accountTypeSize
	for _, ext := range extensions {
		size, fixed := ext.FixedSize()
		if !fixed {
			return 0, fmt.Errorf("extension %s has no fixed size", ext)
		}
		total += tlv(size)
	}
	if metadata != nil {
		total += tlv(metadata.PackedLen())
	}

	// A mint of exactly multisig size would be misread as a multisig.
	if total == multisigSize {
		total += tlvTypeSize
	}
	return total, nil
}

// AttestationMintSpace is the mint_account_space argument for a
// tokenized attestation with the given metadata.
func AttestationMintSpace(metadata Metadata) (uint16, error) {
	n, err := MintLen(AttestationMintExtensions, &metadata)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint16 {
		return 0, fmt.Errorf("mint space %d exceeds %d", n, math.MaxUint16)
	}
	return uint16(n), nil
}
