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

// signupRequest carries the registration form as typed, the initial
// balance included.
type signupRequest struct {
	AccountNumber  string `json:"account_number"`
	PIN            string `json:"pin"`
	InitialBalance string `json:"initial_balance"`
}

type registrar interface {
	Register(ctx context.Context, accountNumber, pin string, initialBalance float64) (*ledger.Account, error)
}

func addSignupRoutes(router *mux.Router, logger log.Logger, accounts registrar) {
	router.Methods("POST").Path("/accounts").HandlerFunc(signupRoute(logger, accounts))
}

func signupRoute(logger log.Logger, accounts registrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signup signupRequest
		if err := readJSON(r, &signup); err != nil {
			encodeError(w, err)
			return
		}

		balance, err := ledger.ParseInitialBalance(signup.InitialBalance)
		if err != nil {
			ledgerError(w, logger, err, "signup")
			return
		}

		acct, err := accounts.Register(r.Context(), signup.AccountNumber, signup.PIN, balance)
		if err != nil {
			ledgerError(w, logger, err, "signup")
			return
		}

		registrations.Add(1)
		writeJSON(w, http.StatusCreated, acct)
	}
}
