// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxBalance caps both a single amount and any stored balance. float64
// holds every cent exactly below it.
const MaxBalance = 1e13

// maxExponent bounds the decimal exponent accepted from text. Converting
// "1e2000000000" to float64 otherwise builds a 10^2000000000 big.Int.
const maxExponent = 20

var maxDecimal = decimal.NewFromFloat(MaxBalance)

// ParseAmount reads a deposit or withdrawal amount typed by the user.
// Non-numeric, non-positive and out of range input returns ErrInvalidAmount.
//
// decimal is stricter than strconv.ParseFloat: "NaN", "Inf" and hex
// floats are all rejected.
func ParseAmount(text string) (float64, error) {
	d, err := parseDecimal(text)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	if !validAmount(f) {
		return 0, ErrInvalidAmount
	}
	return f, nil
}

// ParseInitialBalance is ParseAmount except zero is accepted.
func ParseInitialBalance(text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	d, err := parseDecimal(text)
	if err != nil {
		return 0, err
	}
	if d.IsZero() {
		return 0, nil
	}
	f, _ := d.Float64()
	if !validAmount(f) {
		return 0, ErrInvalidAmount
	}
	return f, nil
}

// parseDecimal returns only values within [-MaxBalance, MaxBalance].
func parseDecimal(text string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, text)
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, text)
	}
	if d.Abs().GreaterThan(maxDecimal) {
		return decimal.Zero, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, text)
	}
	return d, nil
}

// Apply returns balance after a transaction of kind for amount.
func Apply(balance float64, kind Kind, amount float64) (float64, error) {
	if !kind.valid() {
		return balance, fmt.Errorf("unknown transaction type %q", kind)
	}
	if !validAmount(amount) {
		return balance, ErrInvalidAmount
	}
	if !validInitialBalance(balance) {
		return balance, fmt.Errorf("stored balance %v is out of range", balance)
	}
	bal, amt := decimal.NewFromFloat(balance), decimal.NewFromFloat(amount)

	switch kind {
	case Deposit:
		bal = bal.Add(amt)
		if bal.GreaterThan(maxDecimal) {
			return balance, ErrBalanceLimit
		}
	case Withdrawal:
		if amt.GreaterThan(bal) {
			return balance, ErrInsufficientFunds
		}
		bal = bal.Sub(amt)
	}

	f, _ := bal.Float64()
	return f, nil
}

// ValidateAmount rejects zero, negative, NaN and infinite amounts and
// anything above MaxBalance.
func ValidateAmount(amount float64) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	return nil
}

// validAmount is false for NaN since every comparison with it is.
func validAmount(amount float64) bool {
	return amount > 0 && amount <= MaxBalance
}

func validInitialBalance(amount float64) bool {
	return amount == 0 || validAmount(amount)
}
