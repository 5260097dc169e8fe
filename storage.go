// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/moov-io/atm/pkg/buntledger"
	"github.com/moov-io/atm/pkg/ledger"

	"github.com/go-kit/kit/log"
	kitprom "github.com/go-kit/kit/metrics/prometheus"
	stdprom "github.com/prometheus/client_golang/prometheus"
)

var (
	// Metrics
	connections = kitprom.NewGaugeFrom(stdprom.GaugeOpts{
		Name: "sqlite_connections",
		Help: "How many sqlite connections and what status they're in.",
	}, []string{"state"})
)

type promMetricCollector struct {
	interval time.Duration
}

func (p promMetricCollector) run(stats func() sql.DBStats) {
	if stats == nil {
		return
	}
	if p.interval <= 0 {
		p.interval = time.Second
	}
	for range time.Tick(p.interval) {
		p.record(stats())
	}
}

func (promMetricCollector) record(stats sql.DBStats) {
	connections.With("state", "idle").Set(float64(stats.Idle))
	connections.With("state", "inuse").Set(float64(stats.InUse))
	connections.With("state", "open").Set(float64(stats.OpenConnections))
}

// safePath returns the env value, or def if it's empty or trying to
// escape the working directory.
// Don't filepath.Abs to avoid full-fs reads.
func safePath(env, def string) string {
	path := os.Getenv(env)
	if path == "" || strings.Contains(path, "..") {
		path = def
	}
	return path
}

func getSqlitePath() string {
	return safePath("SQLITE_DB_PATH", "atm.db")
}

func getBuntDBPath() string {
	return safePath("BUNTDB_PATH", "atm.buntdb")
}

// openLedger opens the configured backend:
//
//   sqlite  file at SQLITE_DB_PATH (default atm.db)
//   mysql   MYSQL_DSN, e.g. user:pass@tcp(localhost:3306)/atm
//   buntdb  file at BUNTDB_PATH (default atm.buntdb)
func openLedger(logger log.Logger, backend string) (ledger.Ledger, error) {
	switch strings.ToLower(backend) {
	case "", "sqlite", "sqlite3":
		return openSQL(logger, ledger.DriverSQLite, getSqlitePath())

	case "mysql":
		dsn := os.Getenv("MYSQL_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("MYSQL_DSN is required for -storage=mysql")
		}
		return openSQL(logger, ledger.DriverMySQL, dsn)

	case "buntdb":
		return buntledger.New(logger, getBuntDBPath())
	}
	return nil, fmt.Errorf("unknown storage backend %q", backend)
}

func openSQL(logger log.Logger, driver, dsn string) (*ledger.SQL, error) {
	if driver == ledger.DriverSQLite {
		logger.Log("sqlite", fmt.Sprintf("migrating %s", dsn))
	}
	l, err := ledger.OpenSQL(logger, driver, dsn)
	if err != nil {
		return nil, err
	}
	go promMetricCollector{}.run(l.Stats)
	return l, nil
}
