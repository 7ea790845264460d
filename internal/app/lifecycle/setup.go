package lifecycle

import (
	"context"
	"fmt"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/events"
	"github.com/amilzbot/agent-proof-cli/internal/app/sas"
	"github.com/amilzbot/agent-proof-cli/internal/app/schema"

	"github.com/gagliardetto/solana-go"
)

var errNoLayout = apperrors.Invalid("schema layout", "at least one field", "no layout given")

// SchemaDefinition is everything a schema account is created from.
type SchemaDefinition struct {
	Name        string
	Description string
	Version     int
	Layout      *schema.Layout
}

// Deployment is the credential, schema and collection an authority
// issues attestations under.
type Deployment struct {
	Authority      solana.PublicKey
	CredentialName string
	Credential     Step
	SchemaName     string
	SchemaVersion  int
	Schema         Step
	SchemaToken    Step
}

func (m *Manager) EnsureCredential(ctx context.Context, name string) (Step, error) {
	if err := sas.ValidateSeedName("credential name", name); err != nil {
		return Step{}, err
	}

	ix, credential, err := m.Program.CreateCredential(sas.CreateCredentialParams{
		Payer:     m.Authority(),
		Authority: m.Authority(),
		Name:      name,
	})
	if err != nil {
		return Step{}, err
	}

	exists, err := m.exists(ctx, credential)
	if err != nil {
		return Step{}, err
	}
	if exists {
		m.log().Infof("Credential %s already exists", credential)
		return Step{Address: credential, Skipped: true}, nil
	}

	return m.submit(ctx, events.CredentialCreated, credential, ix)
}

func (m *Manager) EnsureSchema(ctx context.Context, credential solana.PublicKey, def SchemaDefinition) (Step, error) {
	if err := sas.ValidateSeedName("schema name", def.Name); err != nil {
		return Step{}, err
	}
	if err := sas.ValidateSchemaVersion(def.Version); err != nil {
		return Step{}, err
	}
	if def.Layout == nil {
		return Step{}, errNoLayout
	}

	ix, address, err := m.Program.CreateSchema(sas.CreateSchemaParams{
		Payer:       m.Authority(),
		Authority:   m.Authority(),
		Credential:  credential,
		Name:        def.Name,
		Description: def.Description,
		Version:     def.Version,
		Layout:      def.Layout.Bytes(),
		FieldNames:  def.Layout.Names(),
	})
	if err != nil {
		return Step{}, err
	}

	exists, err := m.exists(ctx, address)
	if err != nil {
		return Step{}, err
	}
	if exists {
		if err := m.checkLayout(ctx, address, def); err != nil {
			return Step{}, err
		}
		m.log().Infof("Schema %s already exists", address)
		return Step{Address: address, Skipped: true}, nil
	}

	return m.submit(ctx, events.SchemaCreated, address, ix)
}

// checkLayout compares the layout stored at address with def. Layouts
// never change in place; new fields need a new version.
func (m *Manager) checkLayout(ctx context.Context, address solana.PublicKey, def SchemaDefinition) error {
	_, layout, err := m.fetchSchema(ctx, address)
	if err != nil {
		return err
	}
	if !layout.Equal(def.Layout) {
		return &apperrors.AlreadyExistsError{
			Kind:    fmt.Sprintf("schema %s v%d with a different layout (bump the version)", def.Name, def.Version),
			Address: address.String(),
		}
	}
	return nil
}

func (m *Manager) EnsureSchemaToken(ctx context.Context, credential, schemaAddress solana.PublicKey) (Step, error) {
	ix, mint, err := m.Program.TokenizeSchema(sas.TokenizeSchemaParams{
		Payer:      m.Authority(),
		Authority:  m.Authority(),
		Credential: credential,
		Schema:     schemaAddress,
		MaxSize:    m.CollectionSize,
	})
	if err != nil {
		return Step{}, err
	}

	exists, err := m.exists(ctx, mint)
	if err != nil {
		return Step{}, err
	}
	if exists {
		m.log().Infof("Schema collection %s already exists", mint)
		return Step{Address: mint, Skipped: true}, nil
	}

	return m.submit(ctx, events.SchemaTokenized, mint, ix)
}

// Initialize brings the credential, schema and schema collection into
// existence, in that order. A failed step stops the sequence; the steps
// before it stay on chain and are skipped on the next run.
func (m *Manager) Initialize(ctx context.Context, credentialName string, def SchemaDefinition) (*Deployment, error) {
	deployment := &Deployment{
		Authority:      m.Authority(),
		CredentialName: credentialName,
		SchemaName:     def.Name,
		SchemaVersion:  def.Version,
	}

	var err error
	if deployment.Credential, err = m.EnsureCredential(ctx, credentialName); err != nil {
		return nil, err
	}
	if deployment.Schema, err = m.EnsureSchema(ctx, deployment.Credential.Address, def); err != nil {
		return nil, err
	}
	if deployment.SchemaToken, err = m.EnsureSchemaToken(ctx, deployment.Credential.Address, deployment.Schema.Address); err != nil {
		return nil, err
	}
	return deployment, nil
}
