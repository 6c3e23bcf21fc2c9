package async_relay

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-bridge/pkg/bridge/data/lockevent"
	"github.com/code-payments/custody-bridge/pkg/metrics"
	"github.com/code-payments/custody-bridge/pkg/retry"
	"github.com/code-payments/custody-bridge/pkg/solana/custody"
)

type syncRequest struct {
	eventLog ed25519.PublicKey
	done     chan<- struct{}
}

// worker polls every event log once per interval. A zero interval defers to
// the poll interval config.
func (p *service) worker(serviceCtx context.Context, interval time.Duration) error {
	return retry.Loop(
		func() error {
			delay := interval
			if delay <= 0 {
				delay = p.conf.pollInterval.Get(serviceCtx)
			}

			select {
			case <-serviceCtx.Done():
				return serviceCtx.Err()
			case <-time.After(delay):
			}

			return p.syncAll(serviceCtx)
		},
		retry.NonRetriableErrors(context.Canceled),
		retry.Context(serviceCtx),
	)
}

// syncAll queues one sync per event log and waits for all of them. Completions
// go to a channel buffered for every request, so a sync worker never blocks
// on it and nothing waits past cancellation.
func (p *service) syncAll(serviceCtx context.Context) error {
	done := make(chan struct{}, len(p.eventLogs))

	var queued int
	for _, eventLog := range p.eventLogs {
		err := p.requests.Send(serviceCtx, eventLog, &syncRequest{
			eventLog: eventLog,
			done:     done,
		})
		if err != nil {
			return err
		}
		queued++
	}

	for ; queued > 0; queued-- {
		select {
		case <-serviceCtx.Done():
			return serviceCtx.Err()
		case <-done:
		}
	}
	return nil
}

func (p *service) syncWorker(serviceCtx context.Context, requests <-chan *syncRequest) {
	for {
		select {
		case <-serviceCtx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}

			tracedCtx, end := metrics.StartTransaction(serviceCtx, "async__relay_service__sync_event_log")
			_, err := p.syncEventLog(tracedCtx, req.eventLog)
			end(err)

			if err != nil {
				p.log.WithError(err).WithField("event_log", base58.Encode(req.eventLog)).Warn("failure syncing event log")
			}

			req.done <- struct{}{}
		}
	}
}

// syncEventLog persists up to one batch of event log entries that follow the
// latest persisted sequence, returning how many new records were saved.
func (p *service) syncEventLog(ctx context.Context, eventLog ed25519.PublicKey) (int, error) {
	tracer := metrics.TraceMethodCall(ctx, "async_relay", "syncEventLog")
	defer tracer.End()

	n, err := func() (int, error) {
		address := base58.Encode(eventLog)
		log := p.log.WithField("event_log", address)

		info, err := p.reader.GetAccountInfo(ctx, eventLog)
		if err != nil {
			return 0, errors.Wrap(err, "error getting event log account")
		}

		entries, err := custody.NewEventLog(info.Data)
		if err != nil {
			return 0, errors.Wrap(err, "error decoding event log account")
		}

		var next uint64
		latest, err := p.store.GetLatestSequence(ctx, address)
		switch err {
		case nil:
			if latest >= entries.Count() {
				return 0, errors.Errorf("persisted sequence %d is ahead of event log count %d", latest, entries.Count())
			}
			next = latest + 1
		case lockevent.ErrNotFound:
		default:
			return 0, errors.Wrap(err, "error getting latest sequence")
		}

		tracer.AddAttributes(map[string]interface{}{
			"event_log": address,
			"next":      next,
			"count":     entries.Count(),
		})

		var saved int
		for i, foreignAddress := range entries.Entries(next, p.conf.workerBatchSize.Get(ctx)) {
			record := &lockevent.Record{
				EventLog:       address,
				Sequence:       next + uint64(i),
				ForeignAddress: foreignAddress,
			}

			err := p.store.Save(ctx, record)
			if err == lockevent.ErrExists {
				continue
			} else if err != nil {
				return saved, errors.Wrapf(err, "error saving lock event %d", record.Sequence)
			}

			log.WithFields(logrus.Fields{
				"sequence":        record.Sequence,
				"foreign_address": record.ForeignAddress.String(),
			}).Debug("indexed lock event")
			saved++
		}

		return saved, nil
	}()

	p.metricsMu.Lock()
	p.indexedEvents += n
	if err != nil {
		p.failedSyncs++
	} else {
		p.lastSyncedTime = time.Now()
	}
	p.metricsMu.Unlock()

	tracer.OnError(err)
	return n, err
}
