// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package admin

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestAdmin__ping(t *testing.T) {
	svc := SetupServer("")
	if v := svc.BindAddress(); v != ":9090" {
		t.Errorf("got %q", v)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	svc.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "PONG" {
		t.Errorf("got %d: %q", w.Code, w.Body.String())
	}
}

func TestAdmin__metrics(t *testing.T) {
	svc := SetupServer(":0")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	svc.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Errorf("missing go collector metrics")
	}
}

func TestAdmin__live(t *testing.T) {
	var failure error
	svc := SetupServer(":0")
	svc.AddLivenessCheck("ledger", func() error { return failure })

	w := httptest.NewRecorder()
	svc.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("got %d", w.Code)
	}

	failure = errors.New("database is locked")
	w = httptest.NewRecorder()
	svc.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/live", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "database is locked") {
		t.Errorf("got %q", w.Body.String())
	}
}

func TestAdmin__pprofProfileEnabled(t *testing.T) {
	cases := []struct {
		env      string
		zero     bool
		expected bool
	}{
		{"", true, true},
		{"", false, false},
		{"yes", false, true},
		{"YES", false, true},
		{"no", true, false},
		{"maybe", true, true},
	}
	for i := range cases {
		os.Setenv("PPROF_ATMTEST", cases[i].env)
		if v := pprofProfileEnabled("atmtest", cases[i].zero); v != cases[i].expected {
			t.Errorf("env=%q zero=%v: got %v", cases[i].env, cases[i].zero, v)
		}
	}
	os.Unsetenv("PPROF_ATMTEST")
}
