// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

type loginRequest struct {
	AccountNumber string `json:"account_number"`
	PIN           string `json:"pin"`
}

func addLoginRoutes(router *mux.Router, logger log.Logger, auth authable) {
	router.Methods("POST").Path("/accounts/login").HandlerFunc(loginRoute(logger, auth))
}

// loginRoute checks an account number and PIN, returning the account on
// success. Clients then send the same pair as Basic auth on account routes.
func loginRoute(logger log.Logger, auth authable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var login loginRequest
		if err := readJSON(r, &login); err != nil {
			encodeError(w, err)
			return
		}

		acct, err := auth.Authenticate(r.Context(), login.AccountNumber, login.PIN)
		if err != nil {
			ledgerError(w, logger, err, "web")
			return
		}

		authSuccesses.With("method", "web").Add(1)
		writeJSON(w, http.StatusOK, acct)
	}
}
