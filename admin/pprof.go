// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package admin serves the operator endpoints of the ATM service:
// Prometheus metrics, liveness and pprof profiles.
package admin

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Init turns on the block and mutex profiles unless PPROF_BLOCK or
// PPROF_MUTEX is "no". Call it once before SetupServer.
func Init() {
	if pprofProfileEnabled("block", pprofHandlers["block"]) {
		runtime.SetBlockProfileRate(1)
	}
	if pprofProfileEnabled("mutex", pprofHandlers["mutex"]) {
		runtime.SetMutexProfileFraction(1)
	}
}

// pprofHandlers lists the profiles served under /debug/pprof/ and whether
// each is on by default. They stay on the admin listener only, since heap
// dumps can contain PIN digests and account numbers.
var pprofHandlers = map[string]bool{
	"allocs":       true,
	"block":        true,
	"cmdline":      true,
	"goroutine":    true,
	"heap":         true,
	"mutex":        true,
	"profile":      true,
	"threadcreate": false,
	"trace":        false,
}

// pprofProfileEnabled reads PPROF_$NAME. "yes" enables the profile,
// "no" disables it and anything else returns zero.
func pprofProfileEnabled(name string, zero bool) bool {
	v := os.Getenv(fmt.Sprintf("PPROF_%s", strings.ToUpper(name)))
	switch strings.ToLower(v) {
	case "yes":
		return true
	case "no":
		return false
	}
	return zero
}
