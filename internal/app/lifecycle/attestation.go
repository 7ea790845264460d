package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/chain"
	"github.com/amilzbot/agent-proof-cli/internal/app/events"
	"github.com/amilzbot/agent-proof-cli/internal/app/sas"
	"github.com/amilzbot/agent-proof-cli/internal/app/schema"
	"github.com/amilzbot/agent-proof-cli/internal/app/tokenext"
	"github.com/amilzbot/agent-proof-cli/pkg/utilities/timeutil"

	"github.com/gagliardetto/solana-go"
)

type AttestationRequest struct {
	Credential solana.PublicKey
	Schema     solana.PublicKey
	// Nonce keeps attestations under one schema apart; usually the
	// subject's identity key.
	Nonce solana.PublicKey
	// Recipient owns the proof token.
	Recipient solana.PublicKey
	Values    map[string]any
	Expiry    timeutil.TimeUTC
	Token     sas.TokenMetadata
}

type Issued struct {
	Step
	Addresses sas.TokenizedAttestation
	Expiry    timeutil.TimeUTC
}

func (m *Manager) CreateAttestation(ctx context.Context, req AttestationRequest) (*Issued, error) {
	if req.Nonce.IsZero() {
		return nil, apperrors.Invalid("nonce", "identity key", "required")
	}
	if req.Recipient.IsZero() {
		req.Recipient = m.Authority()
	}
	if req.Expiry.T <= m.now().T {
		return nil, apperrors.Invalid("expiry", "in the future", fmt.Sprintf("%s has passed", req.Expiry))
	}

	addrs, err := m.Program.TokenizedAttestationAddresses(req.Credential, req.Schema, req.Nonce, req.Recipient)
	if err != nil {
		return nil, err
	}

	// The payload is encoded with the layout on chain, never a local copy.
	schemaAccount, layout, err := m.fetchSchema(ctx, req.Schema)
	if err != nil {
		return nil, err
	}
	if schemaAccount.IsPaused {
		return nil, apperrors.Invalid("schema", "active schema", fmt.Sprintf("%s is paused", req.Schema))
	}
	data, err := layout.Encode(req.Values)
	if err != nil {
		return nil, err
	}

	collection, err := m.exists(ctx, addrs.SchemaMint)
	if err != nil {
		return nil, err
	}
	if !collection {
		return nil, &apperrors.NotFoundError{Kind: "schema collection", Address: addrs.SchemaMint.String()}
	}

	taken, err := m.exists(ctx, addrs.Attestation)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &apperrors.AlreadyExistsError{Kind: "attestation", Address: addrs.Attestation.String()}
	}

	ix, _, err := m.Program.CreateTokenizedAttestation(sas.CreateTokenizedAttestationParams{
		Payer:      m.Authority(),
		Authority:  m.Authority(),
		Credential: req.Credential,
		Schema:     req.Schema,
		Nonce:      req.Nonce,
		Recipient:  req.Recipient,
		Data:       data,
		Expiry:     req.Expiry.T,
		Token:      req.Token,
	})
	if err != nil {
		return nil, err
	}

	step, err := m.submit(ctx, events.AttestationCreated, addrs.Attestation, ix)
	if err != nil {
		return nil, err
	}
	return &Issued{Step: step, Addresses: addrs, Expiry: req.Expiry}, nil
}

func (m *Manager) fetchSchema(ctx context.Context, address solana.PublicKey) (*sas.Schema, *schema.Layout, error) {
	account, err := m.Chain.Account(ctx, address)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, &apperrors.NotFoundError{Kind: "schema", Address: address.String()}
	}

	decoded, err := sas.DecodeSchema(account.Data)
	if err != nil {
		return nil, nil, err
	}
	layout, err := schema.LayoutFromBytes(decoded.Layout, decoded.FieldNames)
	if err != nil {
		return nil, nil, fmt.Errorf("schema %s: %w", address, err)
	}
	return decoded, layout, nil
}

// Report is what verify learns about one attestation.
type Report struct {
	Address       solana.PublicKey
	Credential    solana.PublicKey
	Schema        solana.PublicKey
	SchemaName    string
	SchemaVersion uint8
	SchemaPaused  bool
	Nonce         solana.PublicKey
	Signer        solana.PublicKey
	Expiry        timeutil.TimeUTC
	Expired       bool
	TokenAccount  solana.PublicKey
	TokenPresent  bool
	Record        schema.Record
}

// Verify reads the attestation at address. A missing account, or one
// that is not an attestation, is a NotFoundError.
func (m *Manager) Verify(ctx context.Context, address solana.PublicKey) (*Report, error) {
	attestation, err := m.fetchAttestation(ctx, address)
	if err != nil {
		return nil, err
	}
	return m.report(ctx, address, attestation, map[solana.PublicKey]*schemaEntry{})
}

type schemaEntry struct {
	account *sas.Schema
	layout  *schema.Layout
}

func (m *Manager) fetchAttestation(ctx context.Context, address solana.PublicKey) (*sas.Attestation, error) {
	account, err := m.Chain.Account(ctx, address)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.Owner.Equals(m.Program.ID) {
		return nil, &apperrors.NotFoundError{Kind: "proof", Address: address.String()}
	}

	attestation, err := sas.DecodeAttestation(account.Data)
	if err != nil {
		m.log().Debugf("Account %s is not an attestation: %v", address, err)
		return nil, &apperrors.NotFoundError{Kind: "proof", Address: address.String()}
	}
	return attestation, nil
}

func (m *Manager) report(ctx context.Context, address solana.PublicKey, attestation *sas.Attestation, schemas map[solana.PublicKey]*schemaEntry) (*Report, error) {
	entry, ok := schemas[attestation.Schema]
	if !ok {
		account, layout, err := m.fetchSchema(ctx, attestation.Schema)
		if err != nil {
			return nil, err
		}
		entry = &schemaEntry{account: account, layout: layout}
		schemas[attestation.Schema] = entry
	}

	record, err := entry.layout.Decode(attestation.Data)
	if err != nil {
		return nil, fmt.Errorf("attestation %s: %w", address, err)
	}

	expiry := timeutil.TimeUTC{T: attestation.Expiry}
	report := &Report{
		Address:       address,
		Credential:    attestation.Credential,
		Schema:        attestation.Schema,
		SchemaName:    entry.account.Name,
		SchemaVersion: entry.account.Version,
		SchemaPaused:  entry.account.IsPaused,
		Nonce:         attestation.Nonce,
		Signer:        attestation.Signer,
		Expiry:        expiry,
		// Zero expiry never expires.
		Expired:      attestation.Expiry != 0 && expiry.Reached(m.now()),
		TokenAccount: attestation.TokenAccount,
		Record:       record,
	}

	if !attestation.TokenAccount.IsZero() {
		if report.TokenPresent, err = m.tokenPresent(ctx, attestation.TokenAccount); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (m *Manager) tokenPresent(ctx context.Context, address solana.PublicKey) (bool, error) {
	account, err := m.Chain.Account(ctx, address)
	if err != nil {
		return false, err
	}
	if account == nil || !account.Owner.Equals(tokenext.Token2022ProgramID) {
		return false, nil
	}
	token, err := tokenext.DecodeTokenAccount(account.Data)
	if err != nil {
		return false, err
	}
	return token.Amount > 0, nil
}

// Revoke burns the proof token and closes the attestation. Only the
// credential's authority may revoke.
func (m *Manager) Revoke(ctx context.Context, address solana.PublicKey) (Step, error) {
	attestation, err := m.fetchAttestation(ctx, address)
	if err != nil {
		return Step{}, err
	}

	account, err := m.Chain.Account(ctx, attestation.Credential)
	if err != nil {
		return Step{}, err
	}
	if account == nil {
		return Step{}, &apperrors.NotFoundError{Kind: "credential", Address: attestation.Credential.String()}
	}
	credential, err := sas.DecodeCredential(account.Data)
	if err != nil {
		return Step{}, err
	}
	if !credential.Authority.Equals(m.Authority()) {
		return Step{}, &apperrors.UnauthorizedError{
			Action:   "revoke",
			Signer:   m.Authority().String(),
			Required: credential.Authority.String(),
		}
	}

	ix, err := m.Program.CloseTokenizedAttestation(sas.CloseTokenizedAttestationParams{
		Payer:        m.Authority(),
		Authority:    m.Authority(),
		Credential:   attestation.Credential,
		Schema:       attestation.Schema,
		Attestation:  address,
		TokenAccount: attestation.TokenAccount,
	})
	if err != nil {
		return Step{}, err
	}
	return m.submit(ctx, events.AttestationRevoked, address, ix)
}

type ListQuery struct {
	Nonce solana.PublicKey
	// Schema narrows the scan when set.
	Schema solana.PublicKey
}

// List finds every attestation issued for a nonce. Attestations that
// cannot be read back, including those whose schema is gone or does not
// decode, are skipped; network failures abort the listing.
func (m *Manager) List(ctx context.Context, query ListQuery) ([]*Report, error) {
	if query.Nonce.IsZero() {
		return nil, apperrors.Invalid("identity", "identity key", "required")
	}

	filters := []chain.Filter{
		{Offset: 0, Bytes: sas.AttestationDiscriminator()},
		{Offset: sas.AttestationNonceOffset, Bytes: query.Nonce.Bytes()},
	}
	if !query.Schema.IsZero() {
		filters = append(filters, chain.Filter{Offset: sas.AttestationSchemaOffset, Bytes: query.Schema.Bytes()})
	}

	accounts, err := m.Chain.ProgramAccounts(ctx, m.Program.ID, filters...)
	if err != nil {
		return nil, err
	}

	schemas := map[solana.PublicKey]*schemaEntry{}
	reports := make([]*Report, 0, len(accounts))
	for _, account := range accounts {
		attestation, err := sas.DecodeAttestation(account.Data)
		if err != nil {
			m.log().Warnf("Skipping undecodable attestation %s: %v", account.Address, err)
			continue
		}
		report, err := m.report(ctx, account.Address, attestation, schemas)
		var networkErr *apperrors.NetworkError
		if errors.As(err, &networkErr) {
			return nil, err
		}
		if err != nil {
			m.log().Warnf("Skipping attestation %s: %v", account.Address, err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}
