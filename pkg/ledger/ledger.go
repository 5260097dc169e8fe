// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package ledger holds account balances and their append-only transaction
// history. Backends implement Ledger; the rules for hashing PINs, parsing
// amounts and applying balance changes live here so every backend agrees.
package ledger

import (
	"context"
	"time"
)

// Kind is the type of a ledger transaction.
type Kind string

const (
	Deposit    Kind = "deposit"
	Withdrawal Kind = "withdrawal"
)

func (k Kind) valid() bool {
	return k == Deposit || k == Withdrawal
}

// Account is a single row of the users table.
type Account struct {
	AccountNumber string  `json:"account_number" db:"account_number"`
	PINHash       string  `json:"-" db:"pin"`
	Balance       float64 `json:"balance" db:"balance"`
}

// Transaction is an immutable record of a deposit or withdrawal.
type Transaction struct {
	ID            string    `json:"id" db:"transaction_id"`
	AccountNumber string    `json:"account_number" db:"account_number"`
	Kind          Kind      `json:"type" db:"transaction_type"`
	Amount        float64   `json:"amount" db:"amount"`
	Date          time.Time `json:"date" db:"date"`
}

// Ledger is the request/response surface presentation layers call into.
//
// Deposit and Withdraw update the balance and append the matching
// Transaction together or not at all.
type Ledger interface {
	// Authenticate returns the account when pin hashes to its stored digest.
	// Unknown accounts and wrong PINs both return ErrAuthFailure.
	Authenticate(ctx context.Context, accountNumber, pin string) (*Account, error)

	Balance(ctx context.Context, accountNumber string) (float64, error)

	// Deposit adds amount and returns the new balance. It fails with
	// ErrBalanceLimit if the result would exceed MaxBalance.
	Deposit(ctx context.Context, accountNumber string, amount float64) (float64, error)

	// Withdraw subtracts amount and returns the new balance. It fails with
	// ErrInsufficientFunds if amount exceeds the balance.
	Withdraw(ctx context.Context, accountNumber string, amount float64) (float64, error)

	Register(ctx context.Context, accountNumber, pin string, initialBalance float64) (*Account, error)

	// Transactions lists every transaction for the account, newest first.
	Transactions(ctx context.Context, accountNumber string) ([]Transaction, error)

	// Ping checks the underlying storage is reachable.
	Ping() error

	Close() error
}

// Now returns the timestamp recorded on new transactions: UTC, second resolution.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
