// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/moov-io/atm/pkg/ledger"

	"github.com/go-kit/kit/log"
)

const (
	// maxReadBytes is the number of bytes to read
	// from a request body. It's intended to be used
	// with an io.LimitReader
	maxReadBytes = 1 * 1024 * 1024
)

// read consumes an io.Reader (wrapping with io.LimitReader)
// and returns either the resulting bytes or a non-nil error.
func read(r io.Reader) ([]byte, error) {
	r = io.LimitReader(r, maxReadBytes)
	return ioutil.ReadAll(r)
}

// readJSON decodes the request body into v.
func readJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	bs, err := read(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(bs, v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// encodeError JSON encodes the supplied error
//
// The HTTP status of "400 Bad Request" is written to the
// response.
func encodeError(w http.ResponseWriter, err error) {
	encodeErrorStatus(w, http.StatusBadRequest, err)
}

func encodeErrorStatus(w http.ResponseWriter, status int, err error) {
	if err == nil {
		return
	}
	writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
	})
}

func internalError(w http.ResponseWriter, logger log.Logger, err error, component string) {
	internalServerErrors.Add(1)
	logger.Log(component, err)
	w.WriteHeader(http.StatusInternalServerError)
}

// ledgerError responds to an error returned from a ledger.Ledger call.
// Errors the account holder caused go back to them, the rest are logged.
func ledgerError(w http.ResponseWriter, logger log.Logger, err error, component string) {
	switch {
	case errors.Is(err, ledger.ErrAuthFailure):
		authFailures.With("method", component).Add(1)
		encodeErrorStatus(w, http.StatusForbidden, err)

	case errors.Is(err, ledger.ErrAccountNotFound):
		encodeErrorStatus(w, http.StatusNotFound, err)

	case errors.Is(err, ledger.ErrDuplicateAccount):
		ledgerRejections.With("reason", "duplicate_account").Add(1)
		encodeErrorStatus(w, http.StatusConflict, err)

	case errors.Is(err, ledger.ErrInsufficientFunds):
		ledgerRejections.With("reason", "insufficient_funds").Add(1)
		encodeError(w, err)

	case errors.Is(err, ledger.ErrBalanceLimit):
		ledgerRejections.With("reason", "balance_limit").Add(1)
		encodeError(w, err)

	case errors.Is(err, ledger.ErrInvalidAmount):
		ledgerRejections.With("reason", "invalid_amount").Add(1)
		encodeError(w, err)

	case ledger.IsUserError(err):
		ledgerRejections.With("reason", "invalid_input").Add(1)
		encodeError(w, err)

	default:
		internalError(w, logger, err, component)
	}
}
