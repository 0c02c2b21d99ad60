package bankhub

import (
	"context"
	"fmt"

	"github.com/automation-hub/hub/internal/importer"
	log "github.com/sirupsen/logrus"
)

// BatchImporter is the importer surface an export is applied through.
type BatchImporter interface {
	ImportUsers(ctx context.Context, users []importer.UserInput) (importer.BatchResult, error)
	ImportBanks(ctx context.Context, banks []importer.BankInput) (importer.BatchResult, error)
	ImportTransactions(ctx context.Context, transactions []importer.TransactionInput) (importer.BatchResult, error)
}

// Report holds the batch result of each export section.
type Report struct {
	Users        importer.BatchResult `json:"users"`
	Banks        importer.BatchResult `json:"banks"`
	Transactions importer.BatchResult `json:"transactions"`
}

// Successful sums created records across sections.
func (r Report) Successful() int {
	return r.Users.Successful + r.Banks.Successful + r.Transactions.Successful
}

// Failed sums rejected records across sections.
func (r Report) Failed() int {
	return r.Users.Failed + r.Banks.Failed + r.Transactions.Failed
}

// Apply imports the export section by section. Empty sections are skipped. A systemic
// importer error stops the remaining sections; the report keeps what already ran.
func Apply(ctx context.Context, imp BatchImporter, export Export) (Report, error) {
	var report Report
	if imp == nil {
		return report, fmt.Errorf("bankhub: nil importer")
	}

	if len(export.Users) > 0 {
		out, err := imp.ImportUsers(ctx, export.Users)
		if err != nil {
			return report, fmt.Errorf("bankhub: import users: %w", err)
		}
		report.Users = out
	}
	if len(export.Banks) > 0 {
		out, err := imp.ImportBanks(ctx, export.Banks)
		if err != nil {
			return report, fmt.Errorf("bankhub: import banks: %w", err)
		}
		report.Banks = out
	}
	if len(export.Transactions) > 0 {
		out, err := imp.ImportTransactions(ctx, export.Transactions)
		if err != nil {
			return report, fmt.Errorf("bankhub: import transactions: %w", err)
		}
		report.Transactions = out
	}

	log.WithFields(log.Fields{
		"users":        report.Users.Total,
		"banks":        report.Banks.Total,
		"transactions": report.Transactions.Total,
		"successful":   report.Successful(),
		"failed":       report.Failed(),
	}).Info("bank-hub export applied")
	return report, nil
}
