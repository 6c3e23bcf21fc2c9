package custody

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-bridge/pkg/solana"
	"github.com/code-payments/custody-bridge/pkg/solana/token"
	"github.com/code-payments/custody-bridge/pkg/testutil"
)

type testEnv struct {
	ctx       context.Context
	program   ed25519.PublicKey
	processor *Processor
	invoker   *testInvoker

	mint      ed25519.PublicKey
	authority ed25519.PublicKey
	bump      uint8

	admin        *solana.AccountInfo
	owner        *solana.AccountInfo
	ownerAsset   *solana.AccountInfo
	vault        *solana.AccountInfo
	registry     *solana.AccountInfo
	eventLog     *solana.AccountInfo
	authorityAcc *solana.AccountInfo
	tokenProgram *solana.AccountInfo
}

func setup(t *testing.T, capacity uint16, maxEntries uint64, balance uint64) *testEnv {
	keys := testutil.GenerateSolanaKeys(t, 8)

	env := &testEnv{
		ctx:     context.Background(),
		program: keys[0],
		mint:    keys[1],
	}
	env.processor = NewProcessor(env.program)

	var err error
	env.authority, env.bump, err = FindAuthority(env.program)
	require.NoError(t, err)

	env.admin = &solana.AccountInfo{PublicKey: keys[2], IsSigner: true}
	env.owner = &solana.AccountInfo{PublicKey: keys[3], IsSigner: true}
	env.ownerAsset = newTokenAccount(keys[4], env.mint, env.owner.PublicKey, balance)
	env.vault = newTokenAccount(keys[5], env.mint, env.authority, 0)
	env.registry = &solana.AccountInfo{
		PublicKey:  keys[6],
		Owner:      env.program,
		Data:       make([]byte, GetRegistryAccountSize(capacity)),
		IsWritable: true,
	}
	env.eventLog = &solana.AccountInfo{
		PublicKey:  keys[7],
		Owner:      env.program,
		Data:       make([]byte, GetEventLogAccountSize(maxEntries)),
		IsWritable: true,
	}
	env.authorityAcc = &solana.AccountInfo{PublicKey: env.authority}
	env.tokenProgram = &solana.AccountInfo{PublicKey: token.ProgramKey}

	env.invoker = &testInvoker{
		program: env.program,
		token:   token.NewProcessor(),
	}

	return env
}

func (e *testEnv) initialize(capacity uint16, bump uint8) error {
	ix := NewInitializeInstruction(
		e.program,
		&InitializeInstructionAccounts{
			Admin:     e.admin.PublicKey,
			Registry:  e.registry.PublicKey,
			Authority: e.authorityAcc.PublicKey,
		},
		&InitializeInstructionArgs{
			Capacity:      capacity,
			AuthorityBump: bump,
		},
	)
	return e.execute(ix.Data, e.admin, e.registry, e.authorityAcc)
}

func (e *testEnv) lockIn(addr ForeignAddress) error {
	return e.execute(
		lockInData(addr),
		e.owner, e.ownerAsset, e.vault, e.registry, e.eventLog, e.tokenProgram,
	)
}

func (e *testEnv) lockOut(addr ForeignAddress) error {
	return e.execute(
		lockOutData(addr),
		e.owner, e.ownerAsset, e.vault, e.registry, e.authorityAcc, e.tokenProgram,
	)
}

func (e *testEnv) execute(data []byte, accounts ...*solana.AccountInfo) error {
	e.invoker.accounts = accounts
	return e.processor.Execute(e.ctx, &solana.ExecutionContext{
		ProgramID: e.program,
		Accounts:  accounts,
		Data:      data,
		Invoker:   e.invoker,
	})
}

func (e *testEnv) loadRegistry(t *testing.T) *CustodyRegistry {
	var registry CustodyRegistry
	require.NoError(t, registry.Unmarshal(e.registry.Data))
	return &registry
}

func (e *testEnv) loadEventLog(t *testing.T) *EventLog {
	log, err := NewEventLog(e.eventLog.Data)
	require.NoError(t, err)
	return log
}

func (e *testEnv) snapshot() [][]byte {
	var snapshot [][]byte
	for _, info := range []*solana.AccountInfo{e.ownerAsset, e.vault, e.registry, e.eventLog} {
		snapshot = append(snapshot, append([]byte{}, info.Data...))
	}
	return snapshot
}

func (e *testEnv) record(addr ForeignAddress) CustodyRecord {
	return CustodyRecord{
		ForeignAddress: addr,
		Owner:          e.owner.PublicKey,
		AssetAccount:   e.ownerAsset.PublicKey,
	}
}

// testInvoker runs token program invocations against the accounts of the
// instruction being executed. Program derived signers are honored when the
// supplied seeds derive them from the calling program.
type testInvoker struct {
	program  ed25519.PublicKey
	token    *token.Processor
	accounts []*solana.AccountInfo

	calls  []solana.Instruction
	seeds  [][][]byte
	reject error
}

func (i *testInvoker) Invoke(ctx context.Context, ix solana.Instruction, signerSeeds ...[][]byte) error {
	i.calls = append(i.calls, ix)
	i.seeds = append(i.seeds, signerSeeds...)

	if i.reject != nil {
		return i.reject
	}
	if !bytes.Equal(ix.Program, token.ProgramKey) {
		return solana.InstructionErrorIncorrectProgramID
	}

	var signers []ed25519.PublicKey
	for _, seeds := range signerSeeds {
		signer, err := solana.CreateProgramAddress(i.program, seeds...)
		if err != nil {
			return solana.InstructionErrorInvalidSeeds
		}
		signers = append(signers, signer)
	}

	accounts := make([]*solana.AccountInfo, len(ix.Accounts))
	for idx, meta := range ix.Accounts {
		var found *solana.AccountInfo
		for _, info := range i.accounts {
			if bytes.Equal(info.PublicKey, meta.PublicKey) {
				found = info
				break
			}
		}
		if found == nil {
			return solana.InstructionErrorMissingAccount
		}

		isSigner := found.IsSigner
		for _, signer := range signers {
			if bytes.Equal(signer, meta.PublicKey) {
				isSigner = true
			}
		}
		if meta.IsSigner && !isSigner {
			return solana.InstructionErrorMissingRequiredSignature
		}

		accounts[idx] = &solana.AccountInfo{
			PublicKey:  found.PublicKey,
			Owner:      found.Owner,
			Data:       found.Data,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable && found.IsWritable,
		}
	}

	return i.token.Execute(ctx, &solana.ExecutionContext{
		ProgramID: ix.Program,
		Accounts:  accounts,
		Data:      ix.Data,
	})
}

func TestProcessor_WorkedExample(t *testing.T) {
	env := setup(t, 2, 10, 5)
	require.NoError(t, env.initialize(2, env.bump))

	registry := env.loadRegistry(t)
	assert.EqualValues(t, 2, registry.Capacity)
	assert.Equal(t, env.bump, registry.AuthorityBump)
	assert.Empty(t, registry.Records)

	a1 := testForeignAddress(0x01)
	a2 := testForeignAddress(0x02)
	a3 := testForeignAddress(0x03)

	require.NoError(t, env.lockIn(a1))
	assert.EqualValues(t, 4, tokenBalance(t, env.ownerAsset))
	assert.EqualValues(t, 1, tokenBalance(t, env.vault))
	assert.Len(t, env.loadRegistry(t).Records, 1)
	assert.Equal(t, []ForeignAddress{a1}, env.loadEventLog(t).Entries(0, 0))

	require.NoError(t, env.lockIn(a2))
	assert.EqualValues(t, 3, tokenBalance(t, env.ownerAsset))
	assert.EqualValues(t, 2, tokenBalance(t, env.vault))
	assert.Equal(t, []ForeignAddress{a1, a2}, env.loadEventLog(t).Entries(0, 0))

	before := env.snapshot()
	calls := len(env.invoker.calls)
	assert.Equal(t, ErrRegistryFull, env.lockIn(a3))
	assert.Equal(t, before, env.snapshot())
	assert.Len(t, env.invoker.calls, calls)

	require.NoError(t, env.lockOut(a1))
	assert.EqualValues(t, 4, tokenBalance(t, env.ownerAsset))
	assert.EqualValues(t, 1, tokenBalance(t, env.vault))

	registry = env.loadRegistry(t)
	require.Len(t, registry.Records, 1)
	expected := env.record(a2)
	assert.True(t, registry.Records[0].Equals(&expected))

	// Lock-out never touches the event log.
	assert.Equal(t, []ForeignAddress{a1, a2}, env.loadEventLog(t).Entries(0, 0))

	// The lock-out transfer was signed with the stored bump.
	require.NotEmpty(t, env.invoker.seeds)
	assert.Equal(t, AuthoritySignerSeeds(env.bump), env.invoker.seeds[len(env.invoker.seeds)-1])

	transfer, err := token.DecodeTransfer(env.invoker.calls[len(env.invoker.calls)-1])
	require.NoError(t, err)
	assert.Equal(t, &token.TransferInstruction{
		Source:      env.vault.PublicKey,
		Destination: env.ownerAsset.PublicKey,
		Owner:       env.authority,
		Amount:      1,
	}, transfer)
}

func TestProcessor_Initialize(t *testing.T) {
	env := setup(t, 4, 1, 0)

	// Registry sized for fewer records than requested.
	assert.Equal(t, ErrInvalidAccountData, env.initialize(5, env.bump))
	assert.Equal(t, ErrInvalidInstruction, env.initialize(0, env.bump))
	assert.False(t, env.loadRegistry(t).IsInitialized())

	env.admin.IsSigner = false
	assert.Equal(t, ErrMissingSignature, env.initialize(4, env.bump))
	env.admin.IsSigner = true

	env.registry.Owner = token.ProgramKey
	assert.Equal(t, ErrOwnerMismatch, env.initialize(4, env.bump))
	env.registry.Owner = env.program

	// Capacity smaller than the account is allowed.
	require.NoError(t, env.initialize(3, env.bump))
	assert.EqualValues(t, 3, env.loadRegistry(t).Capacity)

	before := env.snapshot()
	assert.Equal(t, ErrAlreadyInitialized, env.initialize(3, env.bump))
	assert.Equal(t, ErrAlreadyInitialized, env.initialize(1, env.bump))
	assert.Equal(t, before, env.snapshot())
}

func TestProcessor_InitializeBumpMismatch(t *testing.T) {
	env := setup(t, 2, 1, 0)

	var other uint8
	for b := 255; b >= 0; b-- {
		if uint8(b) == env.bump {
			continue
		}
		if _, err := DeriveAuthority(env.program, uint8(b)); err == nil {
			other = uint8(b)
			break
		}
	}

	// The supplied authority is derived with the canonical bump, so any other
	// bump fails.
	assert.Equal(t, ErrAuthorityMismatch, env.initialize(2, other))
	assert.Equal(t, ErrAuthorityMismatch, env.initialize(2, env.bump+1))
	assert.False(t, env.loadRegistry(t).IsInitialized())
}

func TestProcessor_LockInChecks(t *testing.T) {
	env := setup(t, 2, 10, 5)

	addr := testForeignAddress(0x01)
	assert.Equal(t, ErrUninitializedAccount, env.lockIn(addr))
	require.NoError(t, env.initialize(2, env.bump))

	before := env.snapshot()

	env.owner.IsSigner = false
	assert.Equal(t, ErrMissingSignature, env.lockIn(addr))
	env.owner.IsSigner = true

	env.tokenProgram.PublicKey = env.program
	assert.Equal(t, ErrOwnerMismatch, env.lockIn(addr))
	env.tokenProgram.PublicKey = token.ProgramKey

	env.eventLog.Owner = token.ProgramKey
	assert.Equal(t, ErrOwnerMismatch, env.lockIn(addr))
	env.eventLog.Owner = env.program

	env.vault.Owner = env.program
	assert.Equal(t, ErrOwnerMismatch, env.lockIn(addr))
	env.vault.Owner = token.ProgramKey

	assert.Equal(t, ErrNotEnoughAccountKeys, env.execute(
		lockInData(addr),
		env.owner, env.ownerAsset, env.vault, env.registry, env.eventLog,
	))
	assert.Equal(t, ErrInvalidInstruction, env.execute(
		lockInData(addr)[:20],
		env.owner, env.ownerAsset, env.vault, env.registry, env.eventLog, env.tokenProgram,
	))

	assert.Equal(t, before, env.snapshot())
	assert.Empty(t, env.invoker.calls)
}

func TestProcessor_LockInVaultNotHeldByAuthority(t *testing.T) {
	env := setup(t, 2, 10, 5)
	require.NoError(t, env.initialize(2, env.bump))

	// A token account owned by the caller cannot stand in for the vault.
	env.vault = newTokenAccount(testutil.GenerateSolanaKeys(t, 1)[0], env.mint, env.owner.PublicKey, 0)
	assert.Equal(t, ErrOwnerMismatch, env.lockIn(testForeignAddress(1)))

	env.vault.Data = env.vault.Data[:10]
	assert.Equal(t, ErrInvalidAccountData, env.lockIn(testForeignAddress(1)))
	assert.Empty(t, env.invoker.calls)
}

func TestProcessor_LockInLogFull(t *testing.T) {
	env := setup(t, 5, 1, 5)
	require.NoError(t, env.initialize(5, env.bump))

	require.NoError(t, env.lockIn(testForeignAddress(1)))

	before := env.snapshot()
	assert.Equal(t, ErrLogFull, env.lockIn(testForeignAddress(2)))
	assert.Equal(t, before, env.snapshot())
	assert.Len(t, env.invoker.calls, 1)
}

func TestProcessor_LockInTransferRejected(t *testing.T) {
	env := setup(t, 2, 10, 0)
	require.NoError(t, env.initialize(2, env.bump))

	before := env.snapshot()
	err := env.lockIn(testForeignAddress(1))
	assert.True(t, errors.Is(err, ErrTransferRejected))
	assert.True(t, errors.Is(err, token.ErrorInsufficientFunds))

	var custom solana.CustomError
	require.True(t, errors.As(err, &custom))
	assert.EqualValues(t, ErrTransferRejected, custom)

	assert.Equal(t, before, env.snapshot())
	assert.Empty(t, env.loadRegistry(t).Records)
	assert.EqualValues(t, 0, env.loadEventLog(t).Count())

	env.invoker.reject = errors.New("host failure")
	err = env.lockIn(testForeignAddress(1))
	assert.True(t, errors.Is(err, ErrTransferRejected))
	assert.Equal(t, before, env.snapshot())
}

func TestProcessor_LockInDuplicates(t *testing.T) {
	env := setup(t, 3, 10, 5)
	require.NoError(t, env.initialize(3, env.bump))

	addr := testForeignAddress(1)
	require.NoError(t, env.lockIn(addr))
	require.NoError(t, env.lockIn(addr))

	assert.Len(t, env.loadRegistry(t).Records, 2)
	assert.EqualValues(t, 2, tokenBalance(t, env.vault))

	require.NoError(t, env.lockOut(addr))
	require.NoError(t, env.lockOut(addr))
	assert.Equal(t, ErrRecordNotFound, env.lockOut(addr))
	assert.EqualValues(t, 0, tokenBalance(t, env.vault))
	assert.EqualValues(t, 5, tokenBalance(t, env.ownerAsset))
	assert.EqualValues(t, 2, env.loadEventLog(t).Count())
}

func TestProcessor_LockOutChecks(t *testing.T) {
	env := setup(t, 2, 10, 5)

	addr := testForeignAddress(0x01)
	assert.Equal(t, ErrUninitializedAccount, env.lockOut(addr))

	require.NoError(t, env.initialize(2, env.bump))
	require.NoError(t, env.lockIn(addr))

	before := env.snapshot()
	calls := len(env.invoker.calls)

	env.owner.IsSigner = false
	assert.Equal(t, ErrMissingSignature, env.lockOut(addr))
	env.owner.IsSigner = true

	env.authorityAcc.PublicKey = env.owner.PublicKey
	assert.Equal(t, ErrAuthorityMismatch, env.lockOut(addr))
	env.authorityAcc.PublicKey = env.authority

	env.tokenProgram.PublicKey = env.program
	assert.Equal(t, ErrOwnerMismatch, env.lockOut(addr))
	env.tokenProgram.PublicKey = token.ProgramKey

	env.registry.Owner = token.ProgramKey
	assert.Equal(t, ErrOwnerMismatch, env.lockOut(addr))
	env.registry.Owner = env.program

	env.vault.Owner = env.program
	assert.Equal(t, ErrOwnerMismatch, env.lockOut(addr))
	env.vault.Owner = token.ProgramKey

	// Wrong foreign address, wrong asset account and wrong owner are not
	// matches.
	assert.Equal(t, ErrRecordNotFound, env.lockOut(testForeignAddress(0x02)))

	realAsset := env.ownerAsset
	env.ownerAsset = newTokenAccount(testutil.GenerateSolanaKeys(t, 1)[0], env.mint, env.owner.PublicKey, 0)
	assert.Equal(t, ErrRecordNotFound, env.lockOut(addr))
	env.ownerAsset = realAsset

	realOwner := env.owner
	env.owner = &solana.AccountInfo{PublicKey: testutil.GenerateSolanaKeys(t, 1)[0], IsSigner: true}
	assert.Equal(t, ErrRecordNotFound, env.lockOut(addr))
	env.owner = realOwner

	assert.Equal(t, before, env.snapshot())
	assert.Len(t, env.invoker.calls, calls)

	require.NoError(t, env.lockOut(addr))
}

func TestProcessor_LockOutStoredBump(t *testing.T) {
	env := setup(t, 2, 10, 5)
	require.NoError(t, env.initialize(2, env.bump))

	addr := testForeignAddress(0x01)
	require.NoError(t, env.lockIn(addr))

	// Corrupt the stored bump. The authority no longer matches it and no
	// transfer is attempted.
	env.registry.Data[0] = env.bump - 1
	calls := len(env.invoker.calls)
	assert.Equal(t, ErrAuthorityMismatch, env.lockOut(addr))
	assert.Len(t, env.invoker.calls, calls)
	assert.EqualValues(t, 1, tokenBalance(t, env.vault))
}

func TestProcessor_LockOutTransferRejected(t *testing.T) {
	env := setup(t, 2, 10, 5)
	require.NoError(t, env.initialize(2, env.bump))

	addr := testForeignAddress(0x01)
	require.NoError(t, env.lockIn(addr))

	// Drain the vault behind the program's back.
	var vault token.Account
	require.True(t, vault.Unmarshal(env.vault.Data))
	vault.Amount = 0
	copy(env.vault.Data, vault.Marshal())

	before := env.snapshot()
	err := env.lockOut(addr)
	assert.True(t, errors.Is(err, ErrTransferRejected))
	assert.True(t, errors.Is(err, token.ErrorInsufficientFunds))
	assert.Equal(t, before, env.snapshot())
	assert.Len(t, env.loadRegistry(t).Records, 1)
}

func TestProcessor_InvalidInstruction(t *testing.T) {
	env := setup(t, 2, 10, 5)

	for _, data := range [][]byte{nil, {9}, {2, 1}} {
		assert.Equal(t, ErrInvalidInstruction, env.execute(data, env.admin, env.registry, env.authorityAcc))
	}
	assert.Equal(t, ErrNotEnoughAccountKeys, env.execute([]byte{2, 1, 0, env.bump}, env.admin, env.registry))
}

func newTokenAccount(key, mint, owner ed25519.PublicKey, balance uint64) *solana.AccountInfo {
	state := token.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: balance,
		State:  token.AccountStateInitialized,
	}

	return &solana.AccountInfo{
		PublicKey:  key,
		Owner:      token.ProgramKey,
		Data:       state.Marshal(),
		IsWritable: true,
	}
}

func tokenBalance(t *testing.T, info *solana.AccountInfo) uint64 {
	var account token.Account
	require.True(t, account.Unmarshal(info.Data))
	return account.Amount
}

func lockInData(addr ForeignAddress) []byte {
	return append([]byte{byte(OpcodeLockIn)}, addr[:]...)
}

func lockOutData(addr ForeignAddress) []byte {
	return append([]byte{byte(OpcodeLockOut)}, addr[:]...)
}
