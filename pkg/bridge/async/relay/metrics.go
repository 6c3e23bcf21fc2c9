package async_relay

import (
	"context"
	"time"

	"github.com/mr-tron/base58"

	"github.com/code-payments/custody-bridge/pkg/metrics"
)

const (
	lockEventCountEventName = "LockEventCountPollingCheck"
	relaySyncEventName      = "RelaySyncPollingCheck"
)

func (p *service) metricsGaugeWorker(ctx context.Context) error {
	delay := time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			start := time.Now()

			for _, eventLog := range p.eventLogs {
				p.recordLockEventCountEvent(ctx, base58.Encode(eventLog))
			}
			p.recordSyncEvent(ctx)

			delay = time.Second - time.Since(start)
		}
	}
}

func (p *service) recordLockEventCountEvent(ctx context.Context, eventLog string) {
	count, err := p.store.Count(ctx, eventLog)
	if err != nil {
		return
	}

	metrics.RecordEvent(ctx, lockEventCountEventName, map[string]interface{}{
		"count":     count,
		"event_log": eventLog,
	})
}

func (p *service) recordSyncEvent(ctx context.Context) {
	p.metricsMu.Lock()
	indexed := p.indexedEvents
	failed := p.failedSyncs
	lastSynced := p.lastSyncedTime
	p.indexedEvents = 0
	p.failedSyncs = 0
	p.metricsMu.Unlock()

	kvPairs := map[string]interface{}{
		"indexed":  indexed,
		"failures": failed,
	}
	if !lastSynced.IsZero() {
		kvPairs["seconds_since_last_sync"] = time.Since(lastSynced).Seconds()
	}

	metrics.RecordEvent(ctx, relaySyncEventName, kvPairs)
	metrics.RecordCount(ctx, "relay.indexed_lock_events", uint64(indexed))
}
