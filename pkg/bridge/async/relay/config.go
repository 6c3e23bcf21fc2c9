package async_relay

import (
	"time"

	"github.com/code-payments/custody-bridge/pkg/config"
	"github.com/code-payments/custody-bridge/pkg/config/env"
	"github.com/code-payments/custody-bridge/pkg/config/memory"
	"github.com/code-payments/custody-bridge/pkg/config/wrapper"
)

const (
	envConfigPrefix = "RELAY_SERVICE_"

	WorkerBatchSizeConfigEnvName = envConfigPrefix + "WORKER_BATCH_SIZE"
	defaultWorkerBatchSize       = 100

	PollIntervalConfigEnvName = envConfigPrefix + "POLL_INTERVAL"
	defaultPollInterval       = time.Second
)

type conf struct {
	workerBatchSize config.Uint64
	pollInterval    config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			workerBatchSize: env.NewUint64Config(WorkerBatchSizeConfigEnvName, defaultWorkerBatchSize),
			pollInterval:    env.NewDurationConfig(PollIntervalConfigEnvName, defaultPollInterval),
		}
	}
}

type testOverrides struct {
	workerBatchSize uint64
	pollInterval    time.Duration
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			workerBatchSize: wrapper.NewUint64Config(memory.NewConfig(overrides.workerBatchSize), defaultWorkerBatchSize),
			pollInterval:    wrapper.NewDurationConfig(memory.NewConfig(overrides.pollInterval), defaultPollInterval),
		}
	}
}
