package deploy

import (
	"context"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	async_relay "github.com/code-payments/custody-bridge/pkg/bridge/async/relay"
	"github.com/code-payments/custody-bridge/pkg/bridge/data/lockevent/memory"
	"github.com/code-payments/custody-bridge/pkg/solana"
	"github.com/code-payments/custody-bridge/pkg/solana/custody"
	"github.com/code-payments/custody-bridge/pkg/solana/ledger"
	"github.com/code-payments/custody-bridge/pkg/solana/token"
	"github.com/code-payments/custody-bridge/pkg/testutil"
)

func newTestConfig(t *testing.T, capacity uint16, maxEntries uint64) *Config {
	keys := testutil.GenerateSolanaKeys(t, 2)
	return &Config{
		ProgramID:          base58.Encode(keys[0]),
		Mint:               base58.Encode(keys[1]),
		RegistryCapacity:   capacity,
		EventLogMaxEntries: maxEntries,
	}
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	l := ledger.New()
	cfg := newTestConfig(t, 4, 8)
	admin := testutil.GenerateSolanaKeypair(t)

	deployment, err := Bootstrap(ctx, l, cfg, admin)
	require.NoError(t, err)

	authority, bump, err := custody.FindAuthority(cfg.GetProgramID())
	require.NoError(t, err)
	assert.Equal(t, authority, deployment.Authority)
	assert.Equal(t, bump, deployment.AuthorityBump)

	info, err := l.GetAccountInfo(ctx, deployment.Registry)
	require.NoError(t, err)
	assert.Equal(t, cfg.GetProgramID(), info.Owner)

	var registry custody.CustodyRegistry
	require.NoError(t, registry.Unmarshal(info.Data))
	assert.EqualValues(t, 4, registry.Capacity)
	assert.Equal(t, bump, registry.AuthorityBump)
	assert.Empty(t, registry.Records)

	info, err = l.GetAccountInfo(ctx, deployment.EventLog)
	require.NoError(t, err)
	assert.Equal(t, cfg.GetProgramID(), info.Owner)
	eventLog, err := custody.NewEventLog(info.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 0, eventLog.Count())
	assert.EqualValues(t, 8, eventLog.MaxEntries())

	info, err = l.GetAccountInfo(ctx, deployment.Vault)
	require.NoError(t, err)
	assert.Equal(t, token.ProgramKey, info.Owner)

	var vault token.Account
	require.True(t, vault.Unmarshal(info.Data))
	assert.True(t, vault.IsInitialized())
	assert.Equal(t, cfg.GetMint(), vault.Mint)
	assert.Equal(t, authority, vault.Owner)
	assert.EqualValues(t, 0, vault.Amount)

	// A second deployment of the same program onto the same ledger reuses
	// the registered programs.
	second, err := Bootstrap(ctx, l, cfg, admin)
	require.NoError(t, err)
	assert.NotEqual(t, deployment.Registry, second.Registry)
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	cfg := newTestConfig(t, 0, 8)
	_, err := Bootstrap(context.Background(), ledger.New(), cfg, testutil.GenerateSolanaKeypair(t))
	assert.Error(t, err)
}

func TestBootstrap_LockInIsRelayed(t *testing.T) {
	ctx := context.Background()
	l := ledger.New()
	cfg := newTestConfig(t, 4, 8)

	deployment, err := Bootstrap(ctx, l, cfg, testutil.GenerateSolanaKeypair(t))
	require.NoError(t, err)

	owner := testutil.GenerateSolanaKeypair(t)
	ownerAsset := testutil.GenerateSolanaKeys(t, 1)[0]
	funded := token.Account{
		Mint:   deployment.Mint,
		Owner:  testutil.PublicKey(owner),
		Amount: 10,
		State:  token.AccountStateInitialized,
	}
	require.NoError(t, l.SetAccount(ctx, ownerAsset, token.ProgramKey, funded.Marshal()))

	var addresses []custody.ForeignAddress
	for i := 0; i < 3; i++ {
		var addr custody.ForeignAddress
		addr[0] = byte(i + 1)
		addresses = append(addresses, addr)

		txn := solana.NewTransaction(
			testutil.PublicKey(owner),
			custody.NewLockInInstruction(
				deployment.Program,
				&custody.LockInInstructionAccounts{
					Owner:        testutil.PublicKey(owner),
					OwnerAsset:   ownerAsset,
					CustodyAsset: deployment.Vault,
					Registry:     deployment.Registry,
					EventLog:     deployment.EventLog,
				},
				&custody.LockInInstructionArgs{ForeignAddress: addr},
			),
		)
		txn.SetBlockhash(solana.Blockhash{byte(i)})
		require.NoError(t, txn.Sign(owner))
		require.NoError(t, l.Submit(ctx, &txn))
	}

	store := memory.New()
	relay := async_relay.New(l, store, async_relay.WithEnvConfigs(), deployment.EventLog)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = relay.Start(ctx, 10*time.Millisecond)
	}()

	eventLog := base58.Encode(deployment.EventLog)
	require.NoError(t, testutil.WaitFor(5*time.Second, 10*time.Millisecond, func() bool {
		count, err := store.Count(ctx, eventLog)
		return err == nil && count == uint64(len(addresses))
	}))

	latest, err := store.GetLatestSequence(ctx, eventLog)
	require.NoError(t, err)
	assert.EqualValues(t, 2, latest)

	info, err := l.GetAccountInfo(ctx, deployment.Vault)
	require.NoError(t, err)

	var vault token.Account
	require.True(t, vault.Unmarshal(info.Data))
	assert.EqualValues(t, 3, vault.Amount)
}
