// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/moov-io/atm/pkg/ledger"
	"github.com/moov-io/atm/pkg/statement"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

type historian interface {
	authable

	Balance(ctx context.Context, accountNumber string) (float64, error)
	Transactions(ctx context.Context, accountNumber string) ([]ledger.Transaction, error)
}

func addHistoryRoutes(router *mux.Router, logger log.Logger, h historian) {
	router.Methods("GET").Path("/accounts/{accountNumber}/transactions").HandlerFunc(withAccount(logger, h, historyRoute(logger, h)))
}

// historyRoute lists transactions newest first. ?format=pdf or ?format=xlsx
// downloads the same listing as a statement file.
func historyRoute(logger log.Logger, h historian) accountHandler {
	return func(w http.ResponseWriter, r *http.Request, acct *ledger.Account) {
		format, err := statement.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			encodeError(w, err)
			return
		}

		txs, err := h.Transactions(r.Context(), acct.AccountNumber)
		if err != nil {
			ledgerError(w, logger, err, "history")
			return
		}
		balance, err := h.Balance(r.Context(), acct.AccountNumber)
		if err != nil {
			ledgerError(w, logger, err, "history")
			return
		}

		// render fully before writing headers so a failure can still 500
		var buf bytes.Buffer
		err = statement.Write(&buf, format, statement.Statement{
			AccountNumber: acct.AccountNumber,
			Balance:       balance,
			Transactions:  txs,
		})
		if err != nil {
			internalError(w, logger, err, "history")
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		if format != statement.JSON {
			w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename(acct.AccountNumber)))
		}
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}
