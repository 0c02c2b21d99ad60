// Package bankhub reads bank-hub exports and feeds them through the importer.
package bankhub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/automation-hub/hub/internal/importer"
)

// Export is a bank-hub export document. Sections are applied users first, then banks,
// then transactions, so references inside one export resolve.
type Export struct {
	Users        []importer.UserInput        `json:"users"`
	Banks        []importer.BankInput        `json:"banks"`
	Transactions []importer.TransactionInput `json:"transactions"`
}

// Empty reports whether the export carries no records.
func (e Export) Empty() bool {
	return len(e.Users) == 0 && len(e.Banks) == 0 && len(e.Transactions) == 0
}

// ParseExport decodes an export document. Unknown top-level fields are rejected so a
// payload from the wrong endpoint fails loudly instead of importing nothing.
func ParseExport(data []byte) (Export, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Export{}, fmt.Errorf("parse bank-hub export: empty payload")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var export Export
	if err := dec.Decode(&export); err != nil {
		return Export{}, fmt.Errorf("parse bank-hub export: %w", err)
	}
	return export, nil
}

// ReadExportFile loads and parses an export from disk.
func ReadExportFile(path string) (Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Export{}, fmt.Errorf("read bank-hub export: %w", err)
	}
	return ParseExport(data)
}
