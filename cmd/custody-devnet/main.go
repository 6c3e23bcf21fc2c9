// Command custody-devnet hosts an in-memory ledger with a freshly deployed
// custody program and runs the relay that indexes its lock events.
package main

import (
	"context"
	"crypto/ed25519"
	"database/sql"
	"encoding/json"
	"sync"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-bridge/pkg/app"
	async_relay "github.com/code-payments/custody-bridge/pkg/bridge/async/relay"
	"github.com/code-payments/custody-bridge/pkg/bridge/data/lockevent"
	lockevent_memory "github.com/code-payments/custody-bridge/pkg/bridge/data/lockevent/memory"
	lockevent_postgres "github.com/code-payments/custody-bridge/pkg/bridge/data/lockevent/postgres"
	"github.com/code-payments/custody-bridge/pkg/bridge/deploy"
	pg "github.com/code-payments/custody-bridge/pkg/database/postgres"
	"github.com/code-payments/custody-bridge/pkg/metrics"
	"github.com/code-payments/custody-bridge/pkg/solana/ledger"
)

const (
	// Optional URL of a JSON encoded 64 byte keypair. An ephemeral admin is
	// generated when unset.
	adminKeypairConfigKey = "admin_keypair"
)

type devnet struct {
	log *logrus.Entry

	db         *sql.DB
	cancel     context.CancelFunc
	shutdownCh chan struct{}
	stopOnce   sync.Once
}

func (d *devnet) Init(config app.Config, metricsProvider *newrelic.Application) error {
	cfg, err := deploy.DecodeConfig(config)
	if err != nil {
		return err
	}

	admin, err := loadAdmin(config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(metrics.NewContext(context.Background(), metricsProvider))
	d.cancel = cancel

	l := ledger.New()
	deployment, err := deploy.Bootstrap(ctx, l, cfg, admin)
	if err != nil {
		return err
	}

	var store lockevent.Store
	if cfg.HasDatabase() {
		d.db, err = pg.Open(cfg.Database.PostgresConfig())
		if err != nil {
			return err
		}
		store = lockevent_postgres.New(d.db)
	} else {
		store = lockevent_memory.New()
	}

	relay := async_relay.New(l, store, async_relay.WithEnvConfigs(), deployment.EventLog)
	go func() {
		err := relay.Start(ctx, 0)
		if err != nil && err != context.Canceled {
			d.log.WithError(err).Warn("relay service terminated unexpectedly")
		}
		d.Stop()
	}()

	return nil
}

func (d *devnet) ShutdownChan() <-chan struct{} {
	return d.shutdownCh
}

func (d *devnet) Stop() {
	d.stopOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}
		if d.db != nil {
			d.db.Close()
		}
		close(d.shutdownCh)
	})
}

func loadAdmin(config app.Config) (ed25519.PrivateKey, error) {
	location, _ := config[adminKeypairConfigKey].(string)
	if len(location) == 0 {
		_, admin, err := ed25519.GenerateKey(nil)
		return admin, err
	}

	raw, err := app.LoadFile(location)
	if err != nil {
		return nil, errors.Wrap(err, "error loading admin keypair")
	}

	var values []int
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, errors.Wrap(err, "invalid admin keypair encoding")
	}
	if len(values) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid admin keypair size: %d", len(values))
	}

	admin := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("invalid admin keypair byte at %d", i)
		}
		admin[i] = byte(v)
	}
	return admin, nil
}

func main() {
	d := &devnet{
		log:        logrus.StandardLogger().WithField("type", "custody-devnet"),
		shutdownCh: make(chan struct{}),
	}

	if err := app.Run(d); err != nil {
		d.log.WithError(err).Fatal("error running devnet")
	}
}
