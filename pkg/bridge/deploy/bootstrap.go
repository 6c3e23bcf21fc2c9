package deploy

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-bridge/pkg/solana"
	"github.com/code-payments/custody-bridge/pkg/solana/custody"
	"github.com/code-payments/custody-bridge/pkg/solana/ledger"
	"github.com/code-payments/custody-bridge/pkg/solana/token"
)

// Deployment holds the addresses of a bootstrapped custody deployment
type Deployment struct {
	Program       ed25519.PublicKey
	Mint          ed25519.PublicKey
	Authority     ed25519.PublicKey
	AuthorityBump uint8

	Registry ed25519.PublicKey
	EventLog ed25519.PublicKey
	Vault    ed25519.PublicKey
}

// Bootstrap deploys custody onto l. It registers the custody and token
// programs, provisions program owned registry and event log accounts sized
// from cfg, and submits a single transaction that initializes the vault token
// account and the registry with the canonical authority bump.
func Bootstrap(ctx context.Context, l *ledger.Ledger, cfg *Config, admin ed25519.PrivateKey) (*Deployment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	deployment := &Deployment{
		Program: cfg.GetProgramID(),
		Mint:    cfg.GetMint(),
	}

	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":    "bridge/deploy",
		"program": cfg.ProgramID,
	})

	var err error
	deployment.Authority, deployment.AuthorityBump, err = custody.FindAuthority(deployment.Program)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving custody authority")
	}

	for id, program := range map[string]solana.Program{
		string(token.ProgramKey):   token.NewProcessor(),
		string(deployment.Program): custody.NewProcessor(deployment.Program),
	} {
		err := l.RegisterProgram(ed25519.PublicKey(id), program)
		if err != nil && err != ledger.ErrProgramAlreadyRegistered {
			return nil, errors.Wrap(err, "error registering program")
		}
	}

	for _, key := range []*ed25519.PublicKey{&deployment.Registry, &deployment.EventLog, &deployment.Vault} {
		*key, err = generateKey()
		if err != nil {
			return nil, err
		}
	}

	for _, account := range []struct {
		address ed25519.PublicKey
		owner   ed25519.PublicKey
		size    int
	}{
		{deployment.Registry, deployment.Program, custody.GetRegistryAccountSize(cfg.RegistryCapacity)},
		{deployment.EventLog, deployment.Program, custody.GetEventLogAccountSize(cfg.EventLogMaxEntries)},
		{deployment.Vault, token.ProgramKey, token.AccountSize},
	} {
		if err := l.SetAccount(ctx, account.address, account.owner, make([]byte, account.size)); err != nil {
			return nil, errors.Wrap(err, "error provisioning account")
		}
	}

	adminKey := admin.Public().(ed25519.PublicKey)
	txn := solana.NewTransaction(
		adminKey,
		token.InitializeAccount(deployment.Vault, deployment.Mint, deployment.Authority),
		custody.NewInitializeInstruction(
			deployment.Program,
			&custody.InitializeInstructionAccounts{
				Admin:     adminKey,
				Registry:  deployment.Registry,
				Authority: deployment.Authority,
			},
			&custody.InitializeInstructionArgs{
				Capacity:      cfg.RegistryCapacity,
				AuthorityBump: deployment.AuthorityBump,
			},
		),
	)

	var bh solana.Blockhash
	if _, err := rand.Read(bh[:]); err != nil {
		return nil, err
	}
	txn.SetBlockhash(bh)

	if err := txn.Sign(admin); err != nil {
		return nil, errors.Wrap(err, "error signing initialize transaction")
	}

	if err := l.Submit(ctx, &txn); err != nil {
		return nil, errors.Wrap(err, "error submitting initialize transaction")
	}

	log.WithFields(logrus.Fields{
		"registry":  base58.Encode(deployment.Registry),
		"event_log": base58.Encode(deployment.EventLog),
		"vault":     base58.Encode(deployment.Vault),
		"authority": base58.Encode(deployment.Authority),
	}).Info("custody deployed")

	return deployment, nil
}

func generateKey() (ed25519.PublicKey, error) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "error generating account key")
	}
	return pub, nil
}
