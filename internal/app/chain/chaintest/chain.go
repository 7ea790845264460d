// Package chaintest provides an in-memory chain.Chain that executes the
// attestation-service instructions this tool sends. Transactions apply
// atomically: a failing instruction leaves no trace.
package chaintest

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/chain"
	"github.com/amilzbot/agent-proof-cli/internal/app/sas"
	"github.com/amilzbot/agent-proof-cli/internal/app/schema"
	"github.com/amilzbot/agent-proof-cli/internal/app/tokenext"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

const (
	DefaultFee = 5000
	// Rent charged to the payer per created account.
	DefaultRent = 1_000_000

	tokenAccountLen = 165
)

type Chain struct {
	Program sas.Program
	Fee     uint64
	Rent    uint64

	mu         sync.Mutex
	accounts   map[solana.PublicKey]*chain.Account
	balances   map[solana.PublicKey]uint64
	groups     map[solana.PublicKey]Group
	failNext   error
	submitted  [][]solana.Instruction
	signatures uint64
}

func New() *Chain {
	c := &Chain{
		Program:  sas.Default,
		Fee:      DefaultFee,
		Rent:     DefaultRent,
		accounts: map[solana.PublicKey]*chain.Account{},
		balances: map[solana.PublicKey]uint64{},
		groups:   map[solana.PublicKey]Group{},
	}
	c.accounts[c.Program.ID] = &chain.Account{
		Address:    c.Program.ID,
		Owner:      solana.BPFLoaderUpgradeableProgramID,
		Executable: true,
	}
	return c
}

func (c *Chain) SetBalance(address solana.PublicKey, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[address] = lamports
}

// Put stores an account as is, replacing any account at its address.
func (c *Chain) Put(account chain.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := account
	stored.Data = append([]byte{}, account.Data...)
	c.accounts[account.Address] = &stored
}

// Group is the token group of a schema collection mint. Size counts
// members ever added; closing an attestation does not shrink it.
type Group struct {
	MaxSize uint64
	Size    uint64
}

// Group returns the token group stored on a collection mint.
func (c *Chain) Group(mint solana.PublicKey) (Group, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.groups[mint]
	return g, ok
}

// PauseSchema sets the paused flag of the schema at address.
func (c *Chain) PauseSchema(address solana.PublicKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	account, ok := c.accounts[address]
	if !ok {
		return fmt.Errorf("schema %s does not exist", address)
	}
	decoded, err := sas.DecodeSchema(account.Data)
	if err != nil {
		return err
	}
	decoded.IsPaused = true
	data, err := decoded.Encode()
	if err != nil {
		return err
	}
	paused := *account
	paused.Data = data
	c.accounts[address] = &paused
	return nil
}

// FailNextSubmit makes the next Submit return err without applying
// anything.
func (c *Chain) FailNextSubmit(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = err
}

// Submitted returns the instructions of every applied transaction.
func (c *Chain) Submitted() [][]solana.Instruction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]solana.Instruction{}, c.submitted...)
}

func (c *Chain) Account(_ context.Context, address solana.PublicKey) (*chain.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	account, ok := c.accounts[address]
	if !ok {
		return nil, nil
	}
	out := *account
	out.Data = append([]byte{}, account.Data...)
	return &out, nil
}

func (c *Chain) Balance(_ context.Context, address solana.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[address], nil
}

func (c *Chain) ProgramAccounts(_ context.Context, program solana.PublicKey, filters ...chain.Filter) ([]*chain.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*chain.Account
	for _, account := range c.accounts {
		if !account.Owner.Equals(program) || !matches(account.Data, filters) {
			continue
		}
		copied := *account
		copied.Data = append([]byte{}, account.Data...)
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address.String() < out[j].Address.String() })
	return out, nil
}

func matches(data []byte, filters []chain.Filter) bool {
	for _, f := range filters {
		end := f.Offset + uint64(len(f.Bytes))
		if end > uint64(len(data)) || !bytes.Equal(data[f.Offset:end], f.Bytes) {
			return false
		}
	}
	return true
}

func (c *Chain) Airdrop(_ context.Context, address solana.PublicKey, lamports uint64) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[address] += lamports
	return c.nextSignature(), nil
}

func (c *Chain) nextSignature() solana.Signature {
	c.signatures++
	var sig solana.Signature
	binary.LittleEndian.PutUint64(sig[:8], c.signatures)
	return sig
}

// state is the mutable view a transaction works on before commit.
type state struct {
	accounts map[solana.PublicKey]*chain.Account
	balances map[solana.PublicKey]uint64
	groups   map[solana.PublicKey]Group
	payer    solana.PublicKey
	rent     uint64
}

func (s *state) get(address solana.PublicKey) *chain.Account { return s.accounts[address] }

func (s *state) create(address, owner solana.PublicKey, data []byte) error {
	if _, exists := s.accounts[address]; exists {
		return fmt.Errorf("account %s already in use", address)
	}
	if s.balances[s.payer] < s.rent {
		return fmt.Errorf("payer %s cannot cover rent", s.payer)
	}
	s.balances[s.payer] -= s.rent
	s.accounts[address] = &chain.Account{Address: address, Owner: owner, Lamports: s.rent, Data: data}
	return nil
}

func (c *Chain) Submit(_ context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.failNext; err != nil {
		c.failNext = nil
		return solana.Signature{}, apperrors.Network("send transaction", err)
	}
	if len(signers) == 0 {
		return solana.Signature{}, fmt.Errorf("submit: no fee payer")
	}

	signed := map[solana.PublicKey]bool{}
	for _, s := range signers {
		signed[s.PublicKey()] = true
	}

	st := &state{
		accounts: make(map[solana.PublicKey]*chain.Account, len(c.accounts)),
		balances: make(map[solana.PublicKey]uint64, len(c.balances)),
		groups:   make(map[solana.PublicKey]Group, len(c.groups)),
		payer:    signers[0].PublicKey(),
		rent:     c.Rent,
	}
	for k, v := range c.accounts {
		st.accounts[k] = v
	}
	for k, v := range c.balances {
		st.balances[k] = v
	}
	for k, v := range c.groups {
		st.groups[k] = v
	}

	if st.balances[st.payer] < c.Fee {
		return solana.Signature{}, apperrors.Network("simulate transaction",
			fmt.Errorf("payer %s has insufficient lamports for fee", st.payer))
	}
	st.balances[st.payer] -= c.Fee

	for i, ix := range instructions {
		for _, meta := range ix.Accounts() {
			if meta.IsSigner && !signed[meta.PublicKey] {
				return solana.Signature{}, apperrors.Network("simulate transaction",
					fmt.Errorf("instruction %d: missing signature for %s", i, meta.PublicKey))
			}
		}
		if err := c.execute(st, ix); err != nil {
			return solana.Signature{}, apperrors.Network("simulate transaction",
				fmt.Errorf("instruction %d: %w", i, err))
		}
	}

	c.accounts = st.accounts
	c.balances = st.balances
	c.groups = st.groups
	c.submitted = append(c.submitted, instructions)
	return c.nextSignature(), nil
}

func (c *Chain) execute(st *state, ix solana.Instruction) error {
	program := ix.ProgramID()
	if program.Equals(chain.ComputeBudgetProgramID) {
		return nil
	}
	if !program.Equals(c.Program.ID) {
		return fmt.Errorf("unsupported program %s", program)
	}

	data, err := ix.Data()
	if err != nil {
		return err
	}
	d, err := sas.Discriminator(data)
	if err != nil {
		return err
	}

	accounts := ix.Accounts()
	key := func(i int) solana.PublicKey {
		if i >= len(accounts) {
			return solana.PublicKey{}
		}
		return accounts[i].PublicKey
	}

	switch {
	case sas.IsCreateCredential(d):
		return c.createCredential(st, data, key)
	case sas.IsCreateSchema(d):
		return c.createSchema(st, data, key)
	case sas.IsTokenizeSchema(d):
		return c.tokenizeSchema(st, data, key)
	case sas.IsCreateTokenizedAttestation(d):
		return c.createTokenizedAttestation(st, data, key)
	case sas.IsCloseTokenizedAttestation(d):
		return c.closeTokenizedAttestation(st, key)
	}
	return fmt.Errorf("unsupported instruction %d", d)
}

func (c *Chain) credential(st *state, address solana.PublicKey) (*sas.Credential, error) {
	account := st.get(address)
	if account == nil {
		return nil, fmt.Errorf("credential %s does not exist", address)
	}
	return sas.DecodeCredential(account.Data)
}

func (c *Chain) schema(st *state, address solana.PublicKey) (*sas.Schema, error) {
	account := st.get(address)
	if account == nil {
		return nil, fmt.Errorf("schema %s does not exist", address)
	}
	return sas.DecodeSchema(account.Data)
}

func (c *Chain) createCredential(st *state, data []byte, key func(int) solana.PublicKey) error {
	var args sas.CreateCredentialArgs
	if err := borsh.Deserialize(&args, data); err != nil {
		return err
	}
	authority, address := key(2), key(1)

	want, err := c.Program.CredentialAddress(authority, args.Name)
	if err != nil {
		return err
	}
	if !want.Equals(address) {
		return fmt.Errorf("credential seeds do not match %s", address)
	}

	credential := sas.Credential{Authority: authority, Name: args.Name}
	for _, s := range args.Signers {
		credential.AuthorizedSigners = append(credential.AuthorizedSigners, s)
	}
	encoded, err := credential.Encode()
	if err != nil {
		return err
	}
	return st.create(address, c.Program.ID, encoded)
}

func (c *Chain) createSchema(st *state, data []byte, key func(int) solana.PublicKey) error {
	var args sas.CreateSchemaArgs
	if err := borsh.Deserialize(&args, data); err != nil {
		return err
	}
	authority, credentialAddress, address := key(1), key(2), key(3)

	credential, err := c.credential(st, credentialAddress)
	if err != nil {
		return err
	}
	if !credential.Authority.Equals(authority) {
		return fmt.Errorf("%s is not the credential authority", authority)
	}
	if _, err := schema.LayoutFromBytes(args.Layout, args.FieldNames); err != nil {
		return err
	}

	want, err := c.Program.SchemaAddress(credentialAddress, args.Name, int(args.Version))
	if err != nil {
		return err
	}
	if !want.Equals(address) {
		return fmt.Errorf("schema seeds do not match %s", address)
	}

	encoded, err := (&sas.Schema{
		Credential:  credentialAddress,
		Name:        args.Name,
		Description: args.Description,
		Layout:      args.Layout,
		FieldNames:  args.FieldNames,
		Version:     args.Version,
	}).Encode()
	if err != nil {
		return err
	}
	return st.create(address, c.Program.ID, encoded)
}

func (c *Chain) tokenizeSchema(st *state, data []byte, key func(int) solana.PublicKey) error {
	var args sas.TokenizeSchemaArgs
	if err := borsh.Deserialize(&args, data); err != nil {
		return err
	}
	authority, credentialAddress, schemaAddress, mint := key(1), key(2), key(3), key(4)

	credential, err := c.credential(st, credentialAddress)
	if err != nil {
		return err
	}
	if !credential.Authority.Equals(authority) {
		return fmt.Errorf("%s is not the credential authority", authority)
	}
	if _, err := c.schema(st, schemaAddress); err != nil {
		return err
	}

	want, err := c.Program.SchemaMintAddress(schemaAddress)
	if err != nil {
		return err
	}
	if !want.Equals(mint) {
		return fmt.Errorf("schema mint seeds do not match %s", mint)
	}
	space, err := tokenext.MintLen(nil, nil)
	if err != nil {
		return err
	}
	if err := st.create(mint, tokenext.Token2022ProgramID, make([]byte, space)); err != nil {
		return err
	}
	st.groups[mint] = Group{MaxSize: args.MaxSize}
	return nil
}

func (c *Chain) createTokenizedAttestation(st *state, data []byte, key func(int) solana.PublicKey) error {
	var args sas.CreateTokenizedAttestationArgs
	if err := borsh.Deserialize(&args, data); err != nil {
		return err
	}
	authority, credentialAddress, schemaAddress := key(1), key(2), key(3)
	address, schemaMint, attestationMint := key(4), key(6), key(7)
	tokenAccount, recipient := key(9), key(10)

	credential, err := c.credential(st, credentialAddress)
	if err != nil {
		return err
	}
	if !credential.IsSigner(authority) {
		return fmt.Errorf("%s is not an authorized signer", authority)
	}
	schemaAccount, err := c.schema(st, schemaAddress)
	if err != nil {
		return err
	}
	if !schemaAccount.Credential.Equals(credentialAddress) {
		return fmt.Errorf("schema %s belongs to another credential", schemaAddress)
	}
	if schemaAccount.IsPaused {
		return fmt.Errorf("schema %s is paused", schemaAddress)
	}
	if st.get(schemaMint) == nil {
		return fmt.Errorf("schema %s is not tokenized", schemaAddress)
	}
	group := st.groups[schemaMint]
	if group.Size+1 > group.MaxSize {
		return fmt.Errorf("token group %s is full: max size %d", schemaMint, group.MaxSize)
	}
	group.Size++
	st.groups[schemaMint] = group

	layout, err := schema.LayoutFromBytes(schemaAccount.Layout, schemaAccount.FieldNames)
	if err != nil {
		return err
	}
	if _, err := layout.Decode(args.Data); err != nil {
		return fmt.Errorf("attestation data: %w", err)
	}

	want, err := c.Program.TokenizedAttestationAddresses(credentialAddress, schemaAddress, args.Nonce, recipient)
	if err != nil {
		return err
	}
	if !want.Attestation.Equals(address) || !want.AttestationMint.Equals(attestationMint) ||
		!want.TokenAccount.Equals(tokenAccount) {
		return fmt.Errorf("attestation seeds do not match %s", address)
	}

	encoded, err := (&sas.Attestation{
		Nonce:        args.Nonce,
		Credential:   credentialAddress,
		Schema:       schemaAddress,
		Data:         args.Data,
		Signer:       authority,
		Expiry:       args.Expiry,
		TokenAccount: tokenAccount,
	}).Encode()
	if err != nil {
		return err
	}
	if err := st.create(address, c.Program.ID, encoded); err != nil {
		return err
	}
	if err := st.create(attestationMint, tokenext.Token2022ProgramID, make([]byte, args.MintAccountSpace)); err != nil {
		return err
	}

	token, err := tokenAccountData(attestationMint, recipient, 1)
	if err != nil {
		return err
	}
	return st.create(tokenAccount, tokenext.Token2022ProgramID, token)
}

func (c *Chain) closeTokenizedAttestation(st *state, key func(int) solana.PublicKey) error {
	authority, credentialAddress, address, tokenAccount := key(1), key(2), key(3), key(10)

	account := st.get(address)
	if account == nil {
		return fmt.Errorf("attestation %s does not exist", address)
	}
	attestation, err := sas.DecodeAttestation(account.Data)
	if err != nil {
		return err
	}
	if !attestation.Credential.Equals(credentialAddress) {
		return fmt.Errorf("attestation %s belongs to another credential", address)
	}
	credential, err := c.credential(st, credentialAddress)
	if err != nil {
		return err
	}
	if !credential.IsSigner(authority) {
		return fmt.Errorf("%s is not an authorized signer", authority)
	}

	delete(st.accounts, address)
	st.balances[st.payer] += account.Lamports

	// Burning leaves an empty token account behind.
	if token := st.get(tokenAccount); token != nil {
		decoded, err := tokenext.DecodeTokenAccount(token.Data)
		if err != nil {
			return err
		}
		data, err := tokenAccountData(decoded.MintKey(), decoded.OwnerKey(), 0)
		if err != nil {
			return err
		}
		burned := *token
		burned.Data = data
		st.accounts[tokenAccount] = &burned
	}
	return nil
}

func tokenAccountData(mint, owner solana.PublicKey, amount uint64) ([]byte, error) {
	header, err := borsh.Serialize(tokenext.TokenAccount{Mint: mint, Owner: owner, Amount: amount})
	if err != nil {
		return nil, err
	}
	data := make([]byte, tokenAccountLen)
	copy(data, header)
	return data, nil
}
