// Package anamnesis reads patient intake forms exported as CSV
package anamnesis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoRecords is returned when the form has a header but no answers
var ErrNoRecords = errors.New("anamnesis has no data row")

// Delimiter is the column separator used by intake exports
const Delimiter = ';'

// Read renders the first answer row of a CSV intake as one
// "<column>: <value>" line per column.
func Read(r io.Reader) (string, error) {
	reader := csv.NewReader(r)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return "", ErrNoRecords
	}
	if err != nil {
		return "", fmt.Errorf("failed to read CSV header: %w", err)
	}

	row, err := reader.Read()
	if err == io.EOF {
		return "", ErrNoRecords
	}
	if err != nil {
		return "", fmt.Errorf("failed to read CSV row: %w", err)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	var b strings.Builder
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		value := ""
		if i < len(row) {
			value = strings.TrimSpace(row[i])
		}
		fmt.Fprintf(&b, "%s: %s\n", col, value)
	}
	return b.String(), nil
}

// ReadFile reads an intake CSV from path
func ReadFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return Read(file)
}
