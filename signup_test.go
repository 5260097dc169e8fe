package main

import (
	"context"
	"net/http"
	"testing"
)

func TestSignup(t *testing.T) {
	h, l := testServer(t)

	w := do(t, h, request{method: "POST", path: "/accounts", body: signupRequest{
		AccountNumber:  "654321",
		PIN:            "4321",
		InitialBalance: "250.50",
	}})
	if w.Code != http.StatusCreated {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		AccountNumber string  `json:"account_number"`
		Balance       float64 `json:"balance"`
		PIN           string  `json:"pin"`
	}
	decode(t, w, &resp)
	if resp.AccountNumber != "654321" || resp.Balance != 250.50 || resp.PIN != "" {
		t.Errorf("got %#v", resp)
	}

	if _, err := l.Authenticate(context.Background(), "654321", "4321"); err != nil {
		t.Errorf("registered account can't login: %v", err)
	}
}

func TestSignup__invalid(t *testing.T) {
	h, _ := testServer(t)

	cases := []struct {
		body   interface{}
		status int
	}{
		{signupRequest{AccountNumber: "123456", PIN: "0000"}, http.StatusConflict},
		{signupRequest{AccountNumber: "", PIN: "0000"}, http.StatusBadRequest},
		{signupRequest{AccountNumber: "777", PIN: ""}, http.StatusBadRequest},
		{signupRequest{AccountNumber: "777", PIN: "0000", InitialBalance: "-10"}, http.StatusBadRequest},
		{signupRequest{AccountNumber: "777", PIN: "0000", InitialBalance: "ten"}, http.StatusBadRequest},
		{signupRequest{AccountNumber: "777", PIN: "0000", InitialBalance: "1e200000000"}, http.StatusBadRequest},
		{signupRequest{AccountNumber: "777", PIN: "0000", InitialBalance: "1e400"}, http.StatusBadRequest},
		{"{not json", http.StatusBadRequest},
	}
	for i := range cases {
		w := do(t, h, request{method: "POST", path: "/accounts", body: cases[i].body})
		if w.Code != cases[i].status {
			t.Errorf("case #%d: got %d, want %d: %s", i, w.Code, cases[i].status, w.Body.String())
		}
	}
}
