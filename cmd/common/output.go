// Package common contains shared output helpers for command handlers.
package common

import (
	"fmt"
	"io"
	"strings"

	"fjacquet/bank-ingest/internal/models"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
)

// statusColor picks the colour an import status is printed in.
func statusColor(status models.ImportStatus) *color.Color {
	switch status {
	case models.ImportStatusParsed:
		return green
	case models.ImportStatusFailed:
		return red
	}
	return yellow
}

// Header prints a section title.
func Header(w io.Writer, text string) {
	line := strings.Repeat("=", 60)
	_, _ = bold.Fprintf(w, "%s\n%s\n%s\n", line, text, line)
}

// PrintImport prints one line summarizing an import.
func PrintImport(w io.Writer, imp *models.FileImport) {
	status := statusColor(imp.Status).Sprintf("%-10s", strings.ToUpper(string(imp.Status)))
	fmt.Fprintf(w, "%s %s  %s", status, imp.ID, imp.OriginalName)
	if imp.Status == models.ImportStatusParsed {
		fmt.Fprintf(w, "  [%s] %d parsed", imp.SourceHint, imp.RowsParsed)
		if imp.RowsSkipped > 0 {
			_, _ = yellow.Fprintf(w, ", %d skipped", imp.RowsSkipped)
		}
	}
	fmt.Fprintln(w)
	if imp.ErrorMessage != "" {
		_, _ = red.Fprintf(w, "  → %s\n", imp.ErrorMessage)
	}
}

// PrintImports prints a table of imports followed by per-status totals.
func PrintImports(w io.Writer, imports []models.FileImport) {
	if len(imports) == 0 {
		fmt.Fprintln(w, "No imports.")
		return
	}
	totals := make(map[models.ImportStatus]int)
	pending := 0
	for i := range imports {
		PrintImport(w, &imports[i])
		totals[imports[i].Status]++
		if !imports[i].Status.Terminal() {
			pending++
		}
	}

	parts := make([]string, 0, len(totals))
	for _, s := range []models.ImportStatus{
		models.ImportStatusUploaded, models.ImportStatusQueued, models.ImportStatusProcessing,
		models.ImportStatusParsed, models.ImportStatusFailed,
	} {
		if n := totals[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	fmt.Fprintf(w, "\n%d imports: %s\n", len(imports), strings.Join(parts, ", "))
	if pending > 0 {
		Warning(w, "%d not processed yet, run the worker to finish them", pending)
	}
}

// PrintTransactions prints one line per transaction.
func PrintTransactions(w io.Writer, txs []models.Transaction) {
	for _, tx := range txs {
		date := tx.BookingDateString()
		if date == "" {
			date = "----------"
		}
		amount := tx.Amount.StringFixed(2)
		if tx.Amount.IsNegative() {
			amount = red.Sprint(amount)
		} else {
			amount = green.Sprint(amount)
		}
		fmt.Fprintf(w, "  %s  %12s %s  %s", date, amount, tx.Currency, tx.Description)
		if tx.Counterparty != "" {
			fmt.Fprintf(w, " (%s)", tx.Counterparty)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d transactions\n", len(txs))
}

// Success prints a success message.
func Success(w io.Writer, format string, args ...any) {
	_, _ = green.Fprintf(w, "  → "+format+"\n", args...)
}

// Warning prints a warning message.
func Warning(w io.Writer, format string, args ...any) {
	_, _ = yellow.Fprintf(w, "  ⚠ "+format+"\n", args...)
}

// Error prints an error message.
func Error(w io.Writer, format string, args ...any) {
	_, _ = red.Fprintf(w, "Error: "+format+"\n", args...)
}
