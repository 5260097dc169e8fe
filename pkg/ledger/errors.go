// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package ledger

import (
	"errors"
)

var (
	ErrAuthFailure       = errors.New("incorrect account number or pin")
	ErrInvalidAmount     = errors.New("amount must be greater than 0")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceLimit      = errors.New("deposit would exceed the maximum balance")
	ErrDuplicateAccount  = errors.New("account number already exists")
	ErrAccountNotFound   = errors.New("account not found")

	ErrInvalidAccountNumber = errors.New("invalid account number")
	ErrInvalidPIN           = errors.New("invalid pin")
)

// IsUserError reports whether err is one of the recoverable errors the
// account holder caused (bad input, wrong PIN, not enough money). Anything
// else is a storage or programming fault.
func IsUserError(err error) bool {
	for _, e := range []error{
		ErrAuthFailure,
		ErrInvalidAmount,
		ErrInsufficientFunds,
		ErrBalanceLimit,
		ErrDuplicateAccount,
		ErrAccountNotFound,
		ErrInvalidAccountNumber,
		ErrInvalidPIN,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
