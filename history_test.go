// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
)

func TestHistory(t *testing.T) {
	h, l := testServer(t)
	ctx := context.Background()
	if _, err := l.Withdraw(ctx, "123456", 200); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Deposit(ctx, "123456", 50); err != nil {
		t.Fatal(err)
	}

	w := do(t, h, request{method: "GET", path: "/accounts/123456/transactions", user: "123456", pin: "1234"})
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Balance      float64 `json:"balance"`
		Transactions []struct {
			Type   string  `json:"type"`
			Amount float64 `json:"amount"`
		} `json:"transactions"`
	}
	decode(t, w, &resp)
	if resp.Balance != 850 || len(resp.Transactions) != 2 {
		t.Fatalf("got %#v", resp)
	}
	if resp.Transactions[0].Type != "deposit" || resp.Transactions[1].Type != "withdrawal" {
		t.Errorf("expected newest first, got %#v", resp.Transactions)
	}
}

func TestHistory__exports(t *testing.T) {
	h, l := testServer(t)
	if _, err := l.Withdraw(context.Background(), "123456", 200); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		format, contentType, prefix string
	}{
		{"pdf", "application/pdf", "%PDF-"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "PK"},
	}
	for i := range cases {
		w := do(t, h, request{method: "GET", path: "/accounts/123456/transactions?format=" + cases[i].format, user: "123456", pin: "1234"})
		if w.Code != http.StatusOK {
			t.Errorf("%s: got %d", cases[i].format, w.Code)
			continue
		}
		if v := w.Header().Get("Content-Type"); v != cases[i].contentType {
			t.Errorf("%s: Content-Type %q", cases[i].format, v)
		}
		if v := w.Header().Get("Content-Disposition"); !strings.Contains(v, "transactions-123456."+cases[i].format) {
			t.Errorf("%s: Content-Disposition %q", cases[i].format, v)
		}
		if !bytes.HasPrefix(w.Body.Bytes(), []byte(cases[i].prefix)) {
			t.Errorf("%s: unexpected body", cases[i].format)
		}
	}

	w := do(t, h, request{method: "GET", path: "/accounts/123456/transactions?format=csv", user: "123456", pin: "1234"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("csv: got %d", w.Code)
	}
}
