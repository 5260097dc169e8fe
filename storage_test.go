// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"database/sql"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log"
)

func TestStorage__safePath(t *testing.T) {
	cases := []struct {
		env, expected string
	}{
		{"", "atm.db"},
		{"../../etc/passwd", "atm.db"},
		{"data/atm.db", "data/atm.db"},
	}
	for i := range cases {
		os.Setenv("SQLITE_DB_PATH", cases[i].env)
		if v := getSqlitePath(); v != cases[i].expected {
			t.Errorf("env=%q: got %q", cases[i].env, v)
		}
	}
	os.Unsetenv("SQLITE_DB_PATH")
}

func TestStorage__openLedger(t *testing.T) {
	dir, err := ioutil.TempDir("", "moov-atm")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	os.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "atm.db"))
	os.Setenv("BUNTDB_PATH", filepath.Join(dir, "atm.buntdb"))
	defer os.Unsetenv("SQLITE_DB_PATH")
	defer os.Unsetenv("BUNTDB_PATH")

	for _, backend := range []string{"sqlite", "buntdb"} {
		l, err := openLedger(log.NewNopLogger(), backend)
		if err != nil {
			t.Fatalf("%s: %v", backend, err)
		}
		if err := l.Ping(); err != nil {
			t.Errorf("%s: ping: %v", backend, err)
		}
		if _, err := l.Register(context.Background(), "1", "1", 1); err != nil {
			t.Errorf("%s: %v", backend, err)
		}
		if err := l.Close(); err != nil {
			t.Errorf("%s: close: %v", backend, err)
		}
	}

	if _, err := openLedger(log.NewNopLogger(), "postgres"); err == nil {
		t.Error("expected error for unknown backend")
	}

	os.Unsetenv("MYSQL_DSN")
	if _, err := openLedger(log.NewNopLogger(), "mysql"); err == nil {
		t.Error("expected error without MYSQL_DSN")
	}
}

func TestStorage__promMetricCollector(t *testing.T) {
	// record must tolerate an idle pool
	promMetricCollector{}.record(sql.DBStats{})
	promMetricCollector{}.run(nil)
}

func TestSeedDemoAccount(t *testing.T) {
	logger = log.NewNopLogger()
	_, l := testServer(t) // already seeded

	if err := seedDemoAccount(l); err != nil {
		t.Errorf("duplicate seed should be ignored: %v", err)
	}
	if _, err := l.Authenticate(context.Background(), "123456", "1234"); err != nil {
		t.Error(err)
	}
}
