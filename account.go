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

type teller interface {
	authable

	Balance(ctx context.Context, accountNumber string) (float64, error)
	Deposit(ctx context.Context, accountNumber string, amount float64) (float64, error)
	Withdraw(ctx context.Context, accountNumber string, amount float64) (float64, error)
}

// amountRequest is the amount field exactly as the user typed it.
type amountRequest struct {
	Amount string `json:"amount"`
}

type balanceResponse struct {
	AccountNumber string  `json:"account_number"`
	Balance       float64 `json:"balance"`
}

func addAccountRoutes(router *mux.Router, logger log.Logger, t teller) {
	router.Methods("GET").Path("/accounts/{accountNumber}/balance").HandlerFunc(withAccount(logger, t, balanceRoute(logger, t)))
	router.Methods("POST").Path("/accounts/{accountNumber}/deposit").HandlerFunc(withAccount(logger, t, transactionRoute(logger, ledger.Deposit, t.Deposit)))
	router.Methods("POST").Path("/accounts/{accountNumber}/withdraw").HandlerFunc(withAccount(logger, t, transactionRoute(logger, ledger.Withdrawal, t.Withdraw)))
}

func balanceRoute(logger log.Logger, t teller) accountHandler {
	return func(w http.ResponseWriter, r *http.Request, acct *ledger.Account) {
		balance, err := t.Balance(r.Context(), acct.AccountNumber)
		if err != nil {
			ledgerError(w, logger, err, "balance")
			return
		}
		writeJSON(w, http.StatusOK, balanceResponse{acct.AccountNumber, balance})
	}
}

// transactionRoute handles deposits and withdrawals, which differ only in
// the ledger call made.
func transactionRoute(logger log.Logger, kind ledger.Kind, apply func(context.Context, string, float64) (float64, error)) accountHandler {
	component := string(kind)
	return func(w http.ResponseWriter, r *http.Request, acct *ledger.Account) {
		var req amountRequest
		if err := readJSON(r, &req); err != nil {
			encodeError(w, err)
			return
		}
		amount, err := ledger.ParseAmount(req.Amount)
		if err != nil {
			ledgerError(w, logger, err, component)
			return
		}

		balance, err := apply(r.Context(), acct.AccountNumber, amount)
		if err != nil {
			ledgerError(w, logger, err, component)
			return
		}

		ledgerTransactions.With("kind", component).Add(1)
		writeJSON(w, http.StatusOK, balanceResponse{acct.AccountNumber, balance})
	}
}
