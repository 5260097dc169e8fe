// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package admin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupServer returns an admin Server bound to addr (":9090" if empty).
func SetupServer(addr string) *Server {
	if addr == "" {
		addr = ":9090"
	}
	timeout, _ := time.ParseDuration("45s")
	router := handler()
	return &Server{
		router: router,
		svc: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
			IdleTimeout:  timeout,
		},
	}
}

// Server represents a holder around a net/http Server which
// is used for admin endpoints. (i.e. metrics, healthcheck)
type Server struct {
	router *mux.Router
	svc    *http.Server
}

func (s *Server) BindAddress() string {
	return s.svc.Addr
}

// AddLivenessCheck registers GET /live which runs check on each request and
// responds "503 Service Unavailable" with the error if it fails.
func (s *Server) AddLivenessCheck(name string, check func() error) {
	s.router.Methods("GET").Path("/live").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if err := check(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "%s: %v\n", name, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "%s: good\n", name)
	})
}

// Handler exposes the admin routes, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen brings up the admin HTTP service. This call blocks.
func (s *Server) Listen() error {
	if s == nil || s.svc == nil {
		return nil
	}
	return s.svc.ListenAndServe()
}

// Shutdown unbinds the HTTP server.
func (s *Server) Shutdown() {
	if s == nil || s.svc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.svc.Shutdown(ctx)
}

func handler() *mux.Router {
	r := mux.NewRouter()

	// prometheus metrics
	r.Methods("GET").Path("/metrics").Handler(promhttp.Handler())

	r.Methods("GET").Path("/ping").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("PONG"))
	})

	// add all pprof handlers we've configured
	r.HandleFunc("/debug/pprof/", pprof.Index)
	for k, add := range pprofHandlers {
		if pprofProfileEnabled(k, add) {
			r.Handle(fmt.Sprintf("/debug/pprof/%s", k), pprof.Handler(k))
		}
	}

	return r
}
