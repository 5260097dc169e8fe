// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moov-io/atm/admin"
	"github.com/moov-io/atm/pkg/ledger"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/prometheus"
	"github.com/gorilla/mux"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

var (
	httpAddr  = flag.String("http.addr", ":8080", "HTTP listen address")
	adminAddr = flag.String("admin.addr", ":9090", "Admin HTTP listen address")
	storage   = flag.String("storage", "sqlite", "Ledger backend: sqlite, mysql or buntdb")
	demo      = flag.Bool("demo", false, "Register demo account 123456 (PIN 1234) with a balance of 1000.00")

	logger log.Logger

	// Metrics
	authSuccesses = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_successes",
		Help: "Count of successful authorizations",
	}, []string{"method"})
	authFailures = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_failures",
		Help: "Count of failed authorizations",
	}, []string{"method"})

	registrations = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "registrations",
		Help: "Count of accounts created",
	}, nil)
	ledgerTransactions = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "ledger_transactions",
		Help: "Count of deposits and withdrawals recorded",
	}, []string{"kind"})
	ledgerRejections = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "ledger_rejections",
		Help: "Count of ledger operations refused because of user input",
	}, []string{"reason"})

	internalServerErrors = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "http_internal_server_errors",
		Help: "Count of how many 5xx errors we send out",
	}, nil)
)

const Version = "0.1.0-dev"

func main() {
	flag.Parse()

	// Setup logging, default to stderr
	logger = log.NewLogfmtLogger(os.Stderr)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)
	logger.Log("startup", fmt.Sprintf("Starting atm server version %s", Version))

	// Listen for application termination.
	errs := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	l, err := openLedger(logger, *storage)
	if err != nil {
		logger.Log("storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := l.Close(); err != nil {
			logger.Log("storage", "problem closing ledger", "error", err)
		}
	}()

	if *demo {
		if err := seedDemoAccount(l); err != nil {
			logger.Log("demo", err)
		}
	}

	readTimeout, _ := time.ParseDuration("30s")
	writTimeout, _ := time.ParseDuration("30s")
	idleTimeout, _ := time.ParseDuration("60s")

	serve := &http.Server{
		Addr:    *httpAddr,
		Handler: newRouter(logger, l),
		TLSConfig: &tls.Config{
			InsecureSkipVerify:       false,
			PreferServerCipherSuites: true,
			MinVersion:               tls.VersionTLS12,
		},
		ReadTimeout:  readTimeout,
		WriteTimeout: writTimeout,
		IdleTimeout:  idleTimeout,
	}
	shutdownServer := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := serve.Shutdown(ctx); err != nil {
			logger.Log("shutdown", err)
		}
	}

	admin.Init()
	adminService := admin.SetupServer(*adminAddr)
	adminService.AddLivenessCheck(*storage, l.Ping)
	go func() {
		logger.Log("admin", fmt.Sprintf("Starting admin service on %s", adminService.BindAddress()))
		if err := adminService.Listen(); err != nil && err != http.ErrServerClosed {
			logger.Log("admin", "shutting down", "error", err)
		}
	}()

	go func() {
		logger.Log("transport", "HTTP", "addr", *httpAddr)
		errs <- serve.ListenAndServe()
	}()

	if err := <-errs; err != nil {
		adminService.Shutdown()
		shutdownServer()
		logger.Log("exit", err)
	}
}

func newRouter(logger log.Logger, l ledger.Ledger) *mux.Router {
	router := mux.NewRouter()
	addSignupRoutes(router, logger, l)
	addLoginRoutes(router, logger, l)
	addAccountRoutes(router, logger, l)
	addHistoryRoutes(router, logger, l)
	return router
}

// seedDemoAccount registers the account the ATM has always shipped with.
func seedDemoAccount(l ledger.Ledger) error {
	_, err := l.Register(context.Background(), "123456", "1234", 1000.0)
	if err != nil && !errors.Is(err, ledger.ErrDuplicateAccount) {
		return err
	}
	if err == nil {
		logger.Log("demo", "registered account 123456")
	}
	return nil
}
