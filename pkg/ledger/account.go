// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var accountNumberPattern = regexp.MustCompile(`^[0-9A-Za-z]{1,32}$`)

// HashPIN returns the hex encoded SHA-256 digest stored for a PIN.
func HashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// CheckPIN compares pin against the digest stored on the account.
func (a *Account) CheckPIN(pin string) bool {
	if a == nil {
		return false
	}
	return a.PINHash == HashPIN(pin)
}

// ValidateAccountNumber checks an account number is 1-32 letters or digits.
func ValidateAccountNumber(accountNumber string) error {
	if !accountNumberPattern.MatchString(accountNumber) {
		return ErrInvalidAccountNumber
	}
	return nil
}

// NewAccount validates registration input and builds the row to store.
func NewAccount(accountNumber, pin string, initialBalance float64) (*Account, error) {
	if err := ValidateAccountNumber(accountNumber); err != nil {
		return nil, err
	}
	if strings.TrimSpace(pin) == "" {
		return nil, ErrInvalidPIN
	}
	if !validInitialBalance(initialBalance) {
		return nil, ErrInvalidAmount
	}
	return &Account{
		AccountNumber: accountNumber,
		PINHash:       HashPIN(pin),
		Balance:       initialBalance,
	}, nil
}
