// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package statement renders an account's transaction history for download.
package statement

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/moov-io/atm/pkg/ledger"

	"github.com/jung-kurt/gofpdf"
	"github.com/tealeg/xlsx"
)

type Format string

const (
	JSON Format = "json"
	PDF  Format = "pdf"
	XLSX Format = "xlsx"
)

const dateLayout = "2006-01-02 15:04:05"

// ParseFormat reads the ?format= query value. Empty means JSON.
func ParseFormat(v string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(v))); f {
	case "":
		return JSON, nil
	case JSON, PDF, XLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown statement format %q", v)
}

// ContentType is the HTTP Content-Type for the format.
func (f Format) ContentType() string {
	switch f {
	case PDF:
		return "application/pdf"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json; charset=utf-8"
}

// Filename suggests a download name for the account's statement.
func (f Format) Filename(accountNumber string) string {
	return fmt.Sprintf("transactions-%s.%s", accountNumber, f)
}

// Statement is the history of one account as shown to its holder.
type Statement struct {
	AccountNumber string               `json:"account_number"`
	Balance       float64              `json:"balance"`
	Transactions  []ledger.Transaction `json:"transactions"`
}

// Write encodes s onto w in the given format.
func Write(w io.Writer, f Format, s Statement) error {
	if s.Transactions == nil {
		s.Transactions = []ledger.Transaction{}
	}
	switch f {
	case JSON:
		return json.NewEncoder(w).Encode(s)
	case PDF:
		return writePDF(w, s)
	case XLSX:
		return writeXLSX(w, s)
	}
	return fmt.Errorf("unknown statement format %q", f)
}

func formatAmount(amt float64) string {
	return strconv.FormatFloat(amt, 'f', 2, 64)
}

func writePDF(w io.Writer, s Statement) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Transaction History")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(40, 7, fmt.Sprintf("Account: %s", s.AccountNumber))
	pdf.Ln(7)
	pdf.Cell(40, 7, fmt.Sprintf("Balance: %s", formatAmount(s.Balance)))
	pdf.Ln(10)

	// Table header
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(60, 7, "Transaction Type", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(70, 7, "Date", "1", 0, "", false, 0, "")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 12)
	for _, t := range s.Transactions {
		pdf.CellFormat(60, 7, string(t.Kind), "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 7, formatAmount(t.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(70, 7, t.Date.UTC().Format(dateLayout), "1", 0, "", false, 0, "")
		pdf.Ln(7)
	}

	return pdf.Output(w)
}

func writeXLSX(w io.Writer, s Statement) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Transactions")
	if err != nil {
		return err
	}

	row := sheet.AddRow()
	row.AddCell().SetValue("Account")
	row.AddCell().SetValue(s.AccountNumber)
	row = sheet.AddRow()
	row.AddCell().SetValue("Balance")
	row.AddCell().SetFloat(s.Balance)
	sheet.AddRow()

	// Header row
	row = sheet.AddRow()
	row.AddCell().SetValue("Transaction Type")
	row.AddCell().SetValue("Amount")
	row.AddCell().SetValue("Date")

	for _, t := range s.Transactions {
		row = sheet.AddRow()
		row.AddCell().SetValue(string(t.Kind))
		row.AddCell().SetFloat(t.Amount)
		row.AddCell().SetValue(t.Date.UTC().Format(dateLayout))
	}

	return file.Write(w)
}
