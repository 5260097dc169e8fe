// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package buntledger

import (
	"context"
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/moov-io/atm/pkg/ledger"
	"github.com/moov-io/atm/pkg/ledger/ledgertest"

	"github.com/go-kit/kit/log"
	"github.com/tidwall/buntdb"
)

var (
	flagDebug = flag.Bool("debug", false, "Create db inside project dir for tests")
)

type testLedger struct {
	*Ledger

	// temp dir used
	dir string
}

func (l *testLedger) Close() error {
	if l == nil {
		return nil
	}
	err := l.Ledger.Close()
	if l.dir != "" {
		os.RemoveAll(l.dir)
	}
	return err
}

func makeLedger(t *testing.T) *testLedger {
	t.Helper()

	filename := "ledger_test.buntdb"
	if *flagDebug {
		os.Remove(filename)
		l, err := New(log.NewNopLogger(), filename)
		if err != nil {
			t.Fatal(err)
		}
		return &testLedger{l, ""}
	}

	dir, err := ioutil.TempDir("", "moov-atm-buntledger")
	if err != nil {
		t.Fatal(err)
	}
	l, err := New(log.NewNopLogger(), filepath.Join(dir, filename))
	if err != nil {
		t.Fatal(err)
	}
	return &testLedger{l, dir}
}

func TestLedger(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Ledger {
		return makeLedger(t)
	})
}

func TestLedger__memory(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Ledger {
		l, err := New(nil, ":memory:")
		if err != nil {
			t.Fatal(err)
		}
		return l
	})
}

func TestLedger__keys(t *testing.T) {
	l := makeLedger(t)
	defer l.Close()
	ledgertest.Seed(t, l)

	for i := 0; i < 11; i++ {
		if _, err := l.Deposit(context.Background(), "123456", 1); err != nil {
			t.Fatal(err)
		}
	}

	err := l.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(seqKey("123456"))
		if err != nil {
			return err
		}
		if v != "11" {
			t.Errorf("seq=%q", v)
		}
		if _, err := tx.Get(txnKey("123456", 11)); err != nil {
			t.Errorf("missing txn 11: %v", err)
		}
		v, err = tx.Get(accountKey("123456"))
		if err != nil {
			return err
		}
		if v == "" {
			t.Error("empty account")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	// 11 sorts after 9 because of zero padding
	txs, err := l.Transactions(context.Background(), "123456")
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 11 {
		t.Fatalf("got %d", len(txs))
	}
	if txnKey("123456", 11) < txnKey("123456", 9) {
		t.Error("keys are not ordered by sequence")
	}
}

func TestLedger__invalidAccountPattern(t *testing.T) {
	l := makeLedger(t)
	defer l.Close()
	ledgertest.Seed(t, l)

	if _, err := l.Transactions(context.Background(), "*"); err != ledger.ErrAccountNotFound {
		t.Errorf("got %v", err)
	}
	if _, err := l.Authenticate(context.Background(), "12345?", "1234"); err != ledger.ErrAuthFailure {
		t.Errorf("got %v", err)
	}
}

func TestLedger__reopen(t *testing.T) {
	dir, err := ioutil.TempDir("", "moov-atm-buntledger")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "atm.buntdb")

	l, err := New(nil, path)
	if err != nil {
		t.Fatal(err)
	}
	ledgertest.Seed(t, l)
	if _, err := l.Withdraw(context.Background(), "123456", 200); err != nil {
		t.Fatal(err)
	}
	l.Close()

	l, err = New(nil, path)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	if _, err := l.Authenticate(context.Background(), "123456", "1234"); err != nil {
		t.Error(err)
	}
	if bal, err := l.Balance(context.Background(), "123456"); err != nil || bal != 800 {
		t.Errorf("bal=%v err=%v", bal, err)
	}
}
