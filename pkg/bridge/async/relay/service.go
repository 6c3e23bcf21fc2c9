package async_relay

import (
	"context"
	"crypto/ed25519"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-bridge/pkg/bridge/async"
	"github.com/code-payments/custody-bridge/pkg/bridge/data/lockevent"
	"github.com/code-payments/custody-bridge/pkg/solana"
	sync_util "github.com/code-payments/custody-bridge/pkg/sync"
)

const (
	syncStripes = 8
)

// AccountReader reads the current state of an account
type AccountReader interface {
	GetAccountInfo(ctx context.Context, address ed25519.PublicKey) (*solana.AccountInfo, error)
}

type service struct {
	log       *logrus.Entry
	conf      *conf
	reader    AccountReader
	store     lockevent.Store
	eventLogs []ed25519.PublicKey

	// Syncs for the same event log always land on the same stripe, so a
	// log is never synced concurrently with itself.
	requests *sync_util.StripedChannel[*syncRequest]

	metricsMu      sync.Mutex
	indexedEvents  int
	failedSyncs    int
	lastSyncedTime time.Time
}

// New returns a relay that indexes lock events from the provided event logs
// into store.
func New(reader AccountReader, store lockevent.Store, configProvider ConfigProvider, eventLogs ...ed25519.PublicKey) async.Service {
	return newService(reader, store, configProvider, eventLogs...)
}

func newService(reader AccountReader, store lockevent.Store, configProvider ConfigProvider, eventLogs ...ed25519.PublicKey) *service {
	return &service{
		log:       logrus.StandardLogger().WithField("service", "relay"),
		conf:      configProvider(),
		reader:    reader,
		store:     store,
		eventLogs: eventLogs,
		requests:  sync_util.NewStripedChannel[*syncRequest](syncStripes, uint(len(eventLogs))+1),
	}
}

func (p *service) Start(ctx context.Context, interval time.Duration) error {
	for _, requests := range p.requests.Receivers() {
		go p.syncWorker(ctx, requests)
	}

	go func() {
		err := p.worker(ctx, interval)
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("relay processing loop terminated unexpectedly")
		}
	}()

	go func() {
		err := p.metricsGaugeWorker(ctx)
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("relay metrics gauge loop terminated unexpectedly")
		}
	}()

	<-ctx.Done()
	return ctx.Err()
}
