// Package test starts throwaway postgres containers for store tests.
package test

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	pg "github.com/code-payments/custody-bridge/pkg/database/postgres"
	"github.com/code-payments/custody-bridge/pkg/retry"
	"github.com/code-payments/custody-bridge/pkg/retry/backoff"
)

const (
	image        = "postgres"
	imageTag     = "13.4"
	containerTTL = 2 * time.Minute
	startTimeout = 30 * time.Second
)

// containerConfig is fixed so a container left behind by a crashed test run
// can still be inspected by hand.
var containerConfig = pg.Config{
	User:     "custodytest",
	Password: "custodytest",
	DbName:   "custodybridge",
	SslMode:  "disable",
}

// StartPostgresDB runs a postgres container and returns a pool connected to
// it. The returned func removes the container.
func StartPostgresDB(pool *dockertest.Pool) (*sql.DB, func(), error) {
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: image,
		Tag:        imageTag,
		Env: []string{
			"POSTGRES_USER=" + containerConfig.User,
			"POSTGRES_PASSWORD=" + containerConfig.Password,
			"POSTGRES_DB=" + containerConfig.DbName,
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, func() {}, errors.Wrap(err, "failed to start postgres container")
	}

	closeFunc := func() {
		if err := pool.Purge(resource); err != nil {
			logrus.StandardLogger().WithError(err).Warn("failed to purge postgres container")
		}
	}

	// Expire never fails, it only schedules the container's removal.
	_ = resource.Expire(uint(containerTTL.Seconds()))

	config := containerConfig
	config.Host = resource.GetBoundIP("5432/tcp")
	config.Port, err = strconv.Atoi(resource.GetPort("5432/tcp"))
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "container did not expose a postgres port")
	}
	if config.Host == "" {
		config.Host = "localhost"
	}

	interval := 500 * time.Millisecond
	var db *sql.DB
	_, err = retry.Retry(
		func() error {
			db, err = pg.Open(&config)
			return err
		},
		retry.Limit(uint(startTimeout/interval)),
		retry.Backoff(backoff.Constant(interval), interval),
	)
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for postgres container")
	}

	return db, closeFunc, nil
}
