// Package agent defines the AI-agent identity claim this tool attests:
// the canonical schema it is written with and how a claim maps to
// schema field values.
package agent

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/schema"

	"github.com/gagliardetto/solana-go"
)

const (
	CredentialName    = "agent-proof"
	SchemaName        = "agent-identity"
	SchemaVersion     = 1
	SchemaDescription = "AI agent identity: name, type, platform, capabilities digest, owner"
	MaxFieldLen       = 32
)

const (
	FieldAgentName        = "agent_name"
	FieldAgentType        = "agent_type"
	FieldPlatform         = "platform"
	FieldCapabilitiesHash = "capabilities_hash"
	FieldOwnerPubkey      = "owner_pubkey"
	FieldCreatedAt        = "created_at"
)

var layout = mustLayout()

func mustLayout() *schema.Layout {
	l, err := schema.FromFields(
		schema.Field{Name: FieldAgentName, Type: schema.String},
		schema.Field{Name: FieldAgentType, Type: schema.String},
		schema.Field{Name: FieldPlatform, Type: schema.String},
		schema.Field{Name: FieldCapabilitiesHash, Type: schema.String},
		schema.Field{Name: FieldOwnerPubkey, Type: schema.String},
		schema.Field{Name: FieldCreatedAt, Type: schema.I64},
	)
	if err != nil {
		panic(err)
	}
	return l
}

// Layout is the field layout of the agent-identity schema.
func Layout() *schema.Layout { return layout }

type Identity struct {
	Name         string
	Type         string
	Platform     string
	Capabilities []string
	Owner        solana.PublicKey
	CreatedAt    int64
}

func (id Identity) Validate() error {
	if id.Name == "" {
		return apperrors.Invalid("name", fmt.Sprintf("1..%d bytes", MaxFieldLen), "required")
	}
	for field, value := range map[string]string{"name": id.Name, "type": id.Type, "platform": id.Platform} {
		if len(value) > MaxFieldLen {
			return apperrors.Invalid(field, fmt.Sprintf("max %d bytes", MaxFieldLen),
				fmt.Sprintf("%d bytes is too long", len(value)))
		}
	}
	if id.Owner.IsZero() {
		return apperrors.Invalid("owner", "identity key", "required")
	}
	return nil
}

// CapabilitiesHash is the hex SHA-256 of the claim's canonical JSON.
// Capability order does not affect it.
func (id Identity) CapabilitiesHash() string {
	capabilities := append([]string{}, id.Capabilities...)
	sort.Strings(capabilities)

	canonical, _ := json.Marshal(struct {
		Name         string   `json:"agent_name"`
		Type         string   `json:"agent_type"`
		Platform     string   `json:"platform"`
		Capabilities []string `json:"capabilities"`
	}{id.Name, id.Type, id.Platform, capabilities})

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// Values maps the identity onto the schema fields.
func (id Identity) Values() map[string]any {
	return map[string]any{
		FieldAgentName:        id.Name,
		FieldAgentType:        id.Type,
		FieldPlatform:         id.Platform,
		FieldCapabilitiesHash: id.CapabilitiesHash(),
		FieldOwnerPubkey:      id.Owner.String(),
		FieldCreatedAt:        id.CreatedAt,
	}
}

// Claim is an identity as read back from an attestation.
type Claim struct {
	AgentName        string `json:"agent_name"`
	AgentType        string `json:"agent_type"`
	Platform         string `json:"platform"`
	CapabilitiesHash string `json:"capabilities_hash"`
	OwnerPubkey      string `json:"owner_pubkey"`
	CreatedAt        int64  `json:"created_at"`
}

func ClaimFromRecord(record schema.Record) Claim {
	claim := Claim{
		AgentName:        record.String(FieldAgentName),
		AgentType:        record.String(FieldAgentType),
		Platform:         record.String(FieldPlatform),
		CapabilitiesHash: record.String(FieldCapabilitiesHash),
		OwnerPubkey:      record.String(FieldOwnerPubkey),
	}
	if v, ok := record.Get(FieldCreatedAt); ok {
		claim.CreatedAt, _ = v.(int64)
	}
	return claim
}
