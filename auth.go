// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"net/http"

	"github.com/moov-io/atm/pkg/ledger"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

type authable interface {
	// Authenticate returns the account when pin matches, otherwise
	// ledger.ErrAuthFailure.
	Authenticate(ctx context.Context, accountNumber, pin string) (*ledger.Account, error)
}

// accountHandler serves a request already authenticated as acct.
type accountHandler func(w http.ResponseWriter, r *http.Request, acct *ledger.Account)

// withAccount checks the request's Basic credentials (account number and
// PIN) against the {accountNumber} in the route before calling next.
// There's no session: every request carries the PIN.
func withAccount(logger log.Logger, auth authable, next accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountNumber := mux.Vars(r)["accountNumber"]

		user, pin, ok := r.BasicAuth()
		if !ok {
			authFailures.With("method", "basic").Add(1)
			w.Header().Set("WWW-Authenticate", `Basic realm="atm"`)
			encodeErrorStatus(w, http.StatusUnauthorized, ledger.ErrAuthFailure)
			return
		}
		if user != accountNumber {
			authFailures.With("method", "basic").Add(1)
			encodeErrorStatus(w, http.StatusForbidden, ledger.ErrAuthFailure)
			return
		}

		acct, err := auth.Authenticate(r.Context(), accountNumber, pin)
		if err != nil {
			ledgerError(w, logger, err, "basic")
			return
		}
		authSuccesses.With("method", "basic").Add(1)
		next(w, r, acct)
	}
}
