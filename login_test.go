// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"net/http"
	"strings"
	"testing"
)

func TestLogin(t *testing.T) {
	h, _ := testServer(t)

	w := do(t, h, request{method: "POST", path: "/accounts/login", body: loginRequest{"123456", "1234"}})
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "pin") {
		t.Errorf("leaked pin: %s", w.Body.String())
	}
	var resp balanceResponse
	decode(t, w, &resp)
	if resp.AccountNumber != "123456" || resp.Balance != 1000 {
		t.Errorf("got %#v", resp)
	}
}

func TestLogin__failures(t *testing.T) {
	h, _ := testServer(t)

	cases := []struct {
		body   interface{}
		status int
	}{
		{loginRequest{"123456", "0000"}, http.StatusForbidden},
		{loginRequest{"999999", "1234"}, http.StatusForbidden},
		{loginRequest{"", ""}, http.StatusForbidden},
		{"[]", http.StatusBadRequest},
	}
	for i := range cases {
		w := do(t, h, request{method: "POST", path: "/accounts/login", body: cases[i].body})
		if w.Code != cases[i].status {
			t.Errorf("case #%d: got %d, want %d", i, w.Code, cases[i].status)
		}
	}
}
