package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// InputRecord is one unit of work from the tabular input: a ticket number
// plus whatever metadata the sheet carries.
type InputRecord struct {
	TicketNumber string
	ContactName  string
}

// RecordSource abstracts the tabular input so the pipeline never sees file
// formats. The CSV source is the default implementation; anything that can
// produce rows with a ticket-identifier column fits.
type RecordSource interface {
	Records() ([]InputRecord, error)
}

type CSVSource struct {
	Path string
}

var ticketColumnNames = []string{"ticket id", "ticketnumber", "ticket number", "ticket_number"}
var contactColumnNames = []string{"contact name", "contactname", "contact name (ticket)", "customer name"}

// Records reads the CSV and sniffs the ticket-id and contact columns from the
// header, tolerating the naming drift that exported sheets accumulate. Rows
// without a ticket number are skipped.
func (s CSVSource) Records() ([]InputRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read input csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("input csv %s is empty", s.Path)
	}

	ticketCol := findColumn(rows[0], ticketColumnNames)
	if ticketCol < 0 {
		return nil, fmt.Errorf("input csv %s has no ticket id column (looked for %s)",
			s.Path, strings.Join(ticketColumnNames, ", "))
	}
	contactCol := findColumn(rows[0], contactColumnNames)

	var records []InputRecord
	for _, row := range rows[1:] {
		if ticketCol >= len(row) {
			continue
		}
		number := strings.TrimSpace(row[ticketCol])
		if number == "" {
			continue
		}
		rec := InputRecord{TicketNumber: number}
		if contactCol >= 0 && contactCol < len(row) {
			rec.ContactName = strings.TrimSpace(row[contactCol])
		}
		records = append(records, rec)
	}
	return records, nil
}

func findColumn(header []string, candidates []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, want := range candidates {
			if h == want {
				return i
			}
		}
	}
	return -1
}
