// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package ledgertest runs the behaviour every ledger.Ledger backend must share.
package ledgertest

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/moov-io/atm/pkg/ledger"
)

// Factory returns an empty Ledger. Run closes it when each subtest finishes.
type Factory func(t *testing.T) ledger.Ledger

// Run exercises the ledger operations against a fresh backend per case.
func Run(t *testing.T, newLedger Factory) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(*testing.T, ledger.Ledger)
	}{
		{"register", testRegister},
		{"authenticate", testAuthenticate},
		{"withdrawThenDeposit", testWithdrawThenDeposit},
		{"insufficientFunds", testInsufficientFunds},
		{"invalidAmount", testInvalidAmount},
		{"balanceLimit", testBalanceLimit},
		{"depositWithdrawRoundTrip", testRoundTrip},
		{"unknownAccount", testUnknownAccount},
		{"accountsAreIsolated", testIsolation},
	}
	for i := range cases {
		tc := cases[i]
		t.Run(tc.name, func(t *testing.T) {
			l := newLedger(t)
			defer l.Close()
			tc.fn(t, l)
		})
	}
}

// Seed registers account 123456 with PIN 1234 and 1000.0, as the demo ATM does.
func Seed(t *testing.T, l ledger.Ledger) {
	t.Helper()
	if _, err := l.Register(context.Background(), "123456", "1234", 1000.0); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func balance(t *testing.T, l ledger.Ledger, accountNumber string) float64 {
	t.Helper()
	bal, err := l.Balance(context.Background(), accountNumber)
	if err != nil {
		t.Fatalf("Balance(%s): %v", accountNumber, err)
	}
	return bal
}

func history(t *testing.T, l ledger.Ledger, accountNumber string) []ledger.Transaction {
	t.Helper()
	txs, err := l.Transactions(context.Background(), accountNumber)
	if err != nil {
		t.Fatalf("Transactions(%s): %v", accountNumber, err)
	}
	return txs
}

func testRegister(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()

	acct, err := l.Register(ctx, "42", "0000", 0)
	if err != nil {
		t.Fatal(err)
	}
	if acct.AccountNumber != "42" || acct.Balance != 0 {
		t.Errorf("got %#v", acct)
	}
	if acct.PINHash != ledger.HashPIN("0000") {
		t.Errorf("pin stored as %q", acct.PINHash)
	}

	if _, err := l.Register(ctx, "42", "9999", 10); !errors.Is(err, ledger.ErrDuplicateAccount) {
		t.Errorf("expected ErrDuplicateAccount, got %v", err)
	}
	if bal := balance(t, l, "42"); bal != 0 {
		t.Errorf("duplicate register changed balance to %v", bal)
	}

	bad := []struct {
		account, pin string
		balance      float64
		want         error
	}{
		{"", "1234", 0, ledger.ErrInvalidAccountNumber},
		{"12 34", "1234", 0, ledger.ErrInvalidAccountNumber},
		{"777", "", 0, ledger.ErrInvalidPIN},
		{"777", "1234", -1, ledger.ErrInvalidAmount},
		{"777", "1234", math.NaN(), ledger.ErrInvalidAmount},
		{"777", "1234", math.Inf(1), ledger.ErrInvalidAmount},
		{"777", "1234", math.MaxFloat64, ledger.ErrInvalidAmount},
	}
	for i := range bad {
		_, err := l.Register(ctx, bad[i].account, bad[i].pin, bad[i].balance)
		if !errors.Is(err, bad[i].want) {
			t.Errorf("Register(%q, %q, %v): expected %v, got %v", bad[i].account, bad[i].pin, bad[i].balance, bad[i].want, err)
		}
	}
}

func testAuthenticate(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	Seed(t, l)
	if _, err := l.Register(ctx, "654321", "1234", 5); err != nil {
		t.Fatal(err)
	}

	acct, err := l.Authenticate(ctx, "123456", "1234")
	if err != nil {
		t.Fatal(err)
	}
	if acct.AccountNumber != "123456" || acct.Balance != 1000.0 {
		t.Errorf("got %#v", acct)
	}

	cases := []struct{ account, pin string }{
		{"123456", "4321"},
		{"123456", ""},
		{"123456", "12345"},
		{"999999", "1234"},
		{"12345", "1234"},
	}
	for i := range cases {
		if _, err := l.Authenticate(ctx, cases[i].account, cases[i].pin); !errors.Is(err, ledger.ErrAuthFailure) {
			t.Errorf("Authenticate(%q, %q): expected ErrAuthFailure, got %v", cases[i].account, cases[i].pin, err)
		}
	}
}

func testWithdrawThenDeposit(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	Seed(t, l)

	bal, err := l.Withdraw(ctx, "123456", 200.0)
	if err != nil {
		t.Fatal(err)
	}
	if bal != 800.0 {
		t.Errorf("after withdraw got %v", bal)
	}
	txs := history(t, l, "123456")
	if len(txs) != 1 {
		t.Fatalf("got %d transactions", len(txs))
	}
	if txs[0].Kind != ledger.Withdrawal || txs[0].Amount != 200.0 || txs[0].AccountNumber != "123456" {
		t.Errorf("got %#v", txs[0])
	}
	if txs[0].ID == "" || txs[0].Date.IsZero() {
		t.Errorf("missing id or date: %#v", txs[0])
	}

	bal, err = l.Deposit(ctx, "123456", 50.0)
	if err != nil {
		t.Fatal(err)
	}
	if bal != 850.0 {
		t.Errorf("after deposit got %v", bal)
	}
	if bal := balance(t, l, "123456"); bal != 850.0 {
		t.Errorf("stored balance %v", bal)
	}

	txs = history(t, l, "123456")
	if len(txs) != 2 {
		t.Fatalf("got %d transactions", len(txs))
	}
	if txs[0].Kind != ledger.Deposit || txs[0].Amount != 50.0 {
		t.Errorf("newest should be the deposit, got %#v", txs[0])
	}
	if txs[1].Kind != ledger.Withdrawal || txs[1].Amount != 200.0 {
		t.Errorf("oldest should be the withdrawal, got %#v", txs[1])
	}
	if txs[0].Date.Before(txs[1].Date) {
		t.Errorf("dates out of order: %v before %v", txs[0].Date, txs[1].Date)
	}
}

func testInsufficientFunds(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	Seed(t, l)
	if _, err := l.Withdraw(ctx, "123456", 200.0); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Deposit(ctx, "123456", 50.0); err != nil {
		t.Fatal(err)
	}

	if _, err := l.Withdraw(ctx, "123456", 2000.0); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	if bal := balance(t, l, "123456"); bal != 850.0 {
		t.Errorf("balance changed to %v", bal)
	}
	if n := len(history(t, l, "123456")); n != 2 {
		t.Errorf("got %d transactions", n)
	}

	// withdrawing everything is fine, one cent more is not
	if _, err := l.Withdraw(ctx, "123456", 850.01); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	bal, err := l.Withdraw(ctx, "123456", 850.0)
	if err != nil {
		t.Fatal(err)
	}
	if bal != 0 {
		t.Errorf("got %v", bal)
	}
	if _, err := l.Withdraw(ctx, "123456", 0.01); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("empty account: expected ErrInsufficientFunds, got %v", err)
	}
}

func testInvalidAmount(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	Seed(t, l)

	for _, amt := range []float64{0, -1, -0.01, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := l.Withdraw(ctx, "123456", amt); !errors.Is(err, ledger.ErrInvalidAmount) {
			t.Errorf("Withdraw(%v): expected ErrInvalidAmount, got %v", amt, err)
		}
		if _, err := l.Deposit(ctx, "123456", amt); !errors.Is(err, ledger.ErrInvalidAmount) {
			t.Errorf("Deposit(%v): expected ErrInvalidAmount, got %v", amt, err)
		}
	}
	if bal := balance(t, l, "123456"); bal != 1000.0 {
		t.Errorf("balance changed to %v", bal)
	}
	if n := len(history(t, l, "123456")); n != 0 {
		t.Errorf("got %d transactions", n)
	}
}

func testBalanceLimit(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	if _, err := l.Register(ctx, "7", "1234", ledger.MaxBalance-100); err != nil {
		t.Fatal(err)
	}

	for _, amt := range []float64{math.MaxFloat64, ledger.MaxBalance + 1} {
		if _, err := l.Deposit(ctx, "7", amt); !errors.Is(err, ledger.ErrInvalidAmount) {
			t.Errorf("Deposit(%v): expected ErrInvalidAmount, got %v", amt, err)
		}
	}
	if _, err := l.Deposit(ctx, "7", 100.01); !errors.Is(err, ledger.ErrBalanceLimit) {
		t.Errorf("expected ErrBalanceLimit, got %v", err)
	}
	if bal := balance(t, l, "7"); bal != ledger.MaxBalance-100 {
		t.Errorf("rejected deposit changed balance to %v", bal)
	}
	if n := len(history(t, l, "7")); n != 0 {
		t.Errorf("got %d transactions", n)
	}

	bal, err := l.Deposit(ctx, "7", 100)
	if err != nil {
		t.Fatal(err)
	}
	if bal != ledger.MaxBalance {
		t.Errorf("got %v", bal)
	}
	if _, err := l.Deposit(ctx, "7", 0.01); !errors.Is(err, ledger.ErrBalanceLimit) {
		t.Errorf("full account: expected ErrBalanceLimit, got %v", err)
	}

	// the account stays usable at the limit
	bal, err = l.Withdraw(ctx, "7", 1)
	if err != nil {
		t.Fatal(err)
	}
	if bal != ledger.MaxBalance-1 {
		t.Errorf("got %v", bal)
	}
	if n := len(history(t, l, "7")); n != 2 {
		t.Errorf("got %d transactions", n)
	}
}

func testRoundTrip(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	Seed(t, l)

	for _, amt := range []float64{0.1, 0.2, 1, 33.33, 999.99} {
		before := balance(t, l, "123456")
		n := len(history(t, l, "123456"))

		if _, err := l.Deposit(ctx, "123456", amt); err != nil {
			t.Fatal(err)
		}
		if _, err := l.Withdraw(ctx, "123456", amt); err != nil {
			t.Fatal(err)
		}

		if after := balance(t, l, "123456"); after != before {
			t.Errorf("amount=%v: balance %v became %v", amt, before, after)
		}
		if got := len(history(t, l, "123456")); got != n+2 {
			t.Errorf("amount=%v: expected %d transactions, got %d", amt, n+2, got)
		}
	}
}

func testUnknownAccount(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()

	if _, err := l.Balance(ctx, "404"); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Errorf("Balance: got %v", err)
	}
	if _, err := l.Deposit(ctx, "404", 10); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Errorf("Deposit: got %v", err)
	}
	if _, err := l.Withdraw(ctx, "404", 10); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Errorf("Withdraw: got %v", err)
	}
	if _, err := l.Transactions(ctx, "404"); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Errorf("Transactions: got %v", err)
	}
}

func testIsolation(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	Seed(t, l)
	if _, err := l.Register(ctx, "1234567", "1111", 10); err != nil {
		t.Fatal(err)
	}

	if _, err := l.Deposit(ctx, "1234567", 5); err != nil {
		t.Fatal(err)
	}
	if n := len(history(t, l, "123456")); n != 0 {
		t.Errorf("123456 has %d transactions", n)
	}
	if txs := history(t, l, "1234567"); len(txs) != 1 || txs[0].AccountNumber != "1234567" {
		t.Errorf("got %#v", txs)
	}
	if bal := balance(t, l, "123456"); bal != 1000.0 {
		t.Errorf("got %v", bal)
	}
}
