// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package buntledger implements ledger.Ledger using BuntDB (https://github.com/tidwall/buntdb).
//
// Keys:
//   account:<number>            JSON encoded ledger.Account
//   txnseq:<number>             last transaction sequence for the account
//   txn:<number>:<seq>          JSON encoded ledger.Transaction, seq zero padded
package buntledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/moov-io/atm/pkg/ledger"

	"github.com/go-kit/kit/log"
	"github.com/google/uuid"
	"github.com/tidwall/buntdb"
)

func New(logger log.Logger, path string) (*Ledger, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("problem opening buntdb %s: %v", path, err)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	logger.Log("buntdb", fmt.Sprintf("opened %s", path))
	return &Ledger{
		db:     db,
		logger: logger,
	}, nil
}

type Ledger struct {
	db     *buntdb.DB
	logger log.Logger
}

var _ ledger.Ledger = (*Ledger)(nil)

func accountKey(accountNumber string) string {
	return fmt.Sprintf("account:%s", accountNumber)
}

func seqKey(accountNumber string) string {
	return fmt.Sprintf("txnseq:%s", accountNumber)
}

func txnKey(accountNumber string, seq uint64) string {
	return fmt.Sprintf("txn:%s:%020d", accountNumber, seq)
}

func (l *Ledger) Ping() error {
	return l.db.View(func(tx *buntdb.Tx) error {
		_, err := tx.Len()
		return err
	})
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// readAccount returns ledger.ErrAccountNotFound when no row exists.
func readAccount(tx *buntdb.Tx, accountNumber string) (*ledger.Account, error) {
	if ledger.ValidateAccountNumber(accountNumber) != nil {
		// keeps '*' and '?' out of key patterns
		return nil, ledger.ErrAccountNotFound
	}
	v, err := tx.Get(accountKey(accountNumber))
	if err != nil {
		if err == buntdb.ErrNotFound {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, err
	}
	var acct storedAccount
	if err := json.Unmarshal([]byte(v), &acct); err != nil {
		return nil, fmt.Errorf("problem reading %s: %v", accountNumber, err)
	}
	return &ledger.Account{
		AccountNumber: acct.AccountNumber,
		PINHash:       acct.PINHash,
		Balance:       acct.Balance,
	}, nil
}

func writeAccount(tx *buntdb.Tx, acct *ledger.Account) error {
	bs, err := json.Marshal(storedAccount{acct.AccountNumber, acct.PINHash, acct.Balance})
	if err != nil {
		return err
	}
	_, _, err = tx.Set(accountKey(acct.AccountNumber), string(bs), nil)
	return err
}

// storedAccount is ledger.Account with the PIN digest serialized.
type storedAccount struct {
	AccountNumber string  `json:"account_number"`
	PINHash       string  `json:"pin"`
	Balance       float64 `json:"balance"`
}

func (l *Ledger) Authenticate(_ context.Context, accountNumber, pin string) (*ledger.Account, error) {
	var acct *ledger.Account
	err := l.db.View(func(tx *buntdb.Tx) error {
		a, err := readAccount(tx, accountNumber)
		acct = a
		return err
	})
	if err != nil {
		if err == ledger.ErrAccountNotFound {
			return nil, ledger.ErrAuthFailure
		}
		return nil, err
	}
	if !acct.CheckPIN(pin) {
		return nil, ledger.ErrAuthFailure
	}
	return acct, nil
}

func (l *Ledger) Balance(_ context.Context, accountNumber string) (float64, error) {
	var balance float64
	err := l.db.View(func(tx *buntdb.Tx) error {
		acct, err := readAccount(tx, accountNumber)
		if err != nil {
			return err
		}
		balance = acct.Balance
		return nil
	})
	return balance, err
}

func (l *Ledger) Deposit(ctx context.Context, accountNumber string, amount float64) (float64, error) {
	return l.apply(accountNumber, ledger.Deposit, amount)
}

func (l *Ledger) Withdraw(ctx context.Context, accountNumber string, amount float64) (float64, error) {
	return l.apply(accountNumber, ledger.Withdrawal, amount)
}

// apply runs inside a single buntdb write transaction; returning an error
// from the closure rolls back the balance and the appended entry together.
func (l *Ledger) apply(accountNumber string, kind ledger.Kind, amount float64) (float64, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return 0, err
	}

	var newBalance float64
	err := l.db.Update(func(tx *buntdb.Tx) error {
		acct, err := readAccount(tx, accountNumber)
		if err != nil {
			return err
		}
		newBalance, err = ledger.Apply(acct.Balance, kind, amount)
		if err != nil {
			return err
		}
		acct.Balance = newBalance
		if err := writeAccount(tx, acct); err != nil {
			return err
		}

		var seq uint64
		if v, err := tx.Get(seqKey(accountNumber)); err == nil {
			seq, err = strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt sequence for %s: %v", accountNumber, err)
			}
		} else if err != buntdb.ErrNotFound {
			return err
		}
		seq++
		if _, _, err := tx.Set(seqKey(accountNumber), strconv.FormatUint(seq, 10), nil); err != nil {
			return err
		}

		bs, err := json.Marshal(ledger.Transaction{
			ID:            uuid.New().String(),
			AccountNumber: accountNumber,
			Kind:          kind,
			Amount:        amount,
			Date:          ledger.Now(),
		})
		if err != nil {
			return err
		}
		_, _, err = tx.Set(txnKey(accountNumber, seq), string(bs), nil)
		return err
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (l *Ledger) Register(_ context.Context, accountNumber, pin string, initialBalance float64) (*ledger.Account, error) {
	acct, err := ledger.NewAccount(accountNumber, pin, initialBalance)
	if err != nil {
		return nil, err
	}
	err = l.db.Update(func(tx *buntdb.Tx) error {
		if _, err := tx.Get(accountKey(accountNumber)); err == nil {
			return ledger.ErrDuplicateAccount
		} else if err != buntdb.ErrNotFound {
			return err
		}
		return writeAccount(tx, acct)
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// Transactions walks the account's keys in descending order, which is
// newest first since sequences are zero padded.
func (l *Ledger) Transactions(_ context.Context, accountNumber string) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	err := l.db.View(func(tx *buntdb.Tx) error {
		if _, err := readAccount(tx, accountNumber); err != nil {
			return err
		}
		var decodeErr error
		err := tx.DescendKeys(fmt.Sprintf("txn:%s:*", accountNumber), func(key, value string) bool {
			var t ledger.Transaction
			if err := json.Unmarshal([]byte(value), &t); err != nil {
				decodeErr = fmt.Errorf("problem reading %s: %v", key, err)
				return false
			}
			out = append(out, t)
			return true
		})
		if err != nil {
			return err
		}
		return decodeErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
