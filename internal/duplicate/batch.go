package duplicate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/automation-hub/hub/internal/models"
	"github.com/shopspring/decimal"
)

// UserCandidate carries the fields user detection needs.
type UserCandidate struct {
	ExternalID string
	Email      string
}

// BankCandidate carries the fields bank detection needs.
type BankCandidate struct {
	ExternalID     string
	UserExternalID string
	Name           string
}

// TransactionCandidate carries the fields transaction detection needs.
type TransactionCandidate struct {
	ExternalID      string
	BankExternalID  string
	Amount          decimal.Decimal
	TransactionDate time.Time
}

func (c UserCandidate) normalized() UserCandidate {
	c.ExternalID = strings.TrimSpace(c.ExternalID)
	c.Email = strings.TrimSpace(c.Email)
	return c
}

func (c BankCandidate) normalized() BankCandidate {
	c.ExternalID = strings.TrimSpace(c.ExternalID)
	c.UserExternalID = strings.TrimSpace(c.UserExternalID)
	c.Name = strings.TrimSpace(c.Name)
	return c
}

func (c TransactionCandidate) normalized() TransactionCandidate {
	c.ExternalID = strings.TrimSpace(c.ExternalID)
	c.BankExternalID = strings.TrimSpace(c.BankExternalID)
	return c
}

// mappedIDs runs the single bulk mapping lookup every batch starts with.
func (d *Detector) mappedIDs(ctx context.Context, externalIDs []string, entityType models.EntityType) (Set, error) {
	found, err := d.mappings.GetBatchInternalIDs(ctx, externalIDs, entityType, d.cfg.Module)
	if err != nil {
		return nil, err
	}
	duplicates := make(Set, len(found))
	for externalID := range found {
		duplicates.add(externalID)
	}
	return duplicates, nil
}

// DetectDuplicateUsers classifies users with one bulk mapping lookup followed by one bulk
// email check for the records the first pass left unresolved. Candidate fields are
// trimmed first, so the returned set is keyed by trimmed external IDs.
func (d *Detector) DetectDuplicateUsers(ctx context.Context, users []UserCandidate) (Set, error) {
	externalIDs := make([]string, 0, len(users))
	normalized := make([]UserCandidate, 0, len(users))
	for _, user := range users {
		user = user.normalized()
		normalized = append(normalized, user)
		externalIDs = append(externalIDs, user.ExternalID)
	}
	users = normalized
	duplicates, err := d.mappedIDs(ctx, externalIDs, models.EntityTypeUser)
	if err != nil {
		return nil, err
	}

	remaining := make([]UserCandidate, 0, len(users))
	emails := make([]string, 0, len(users))
	for _, user := range users {
		if duplicates.Has(user.ExternalID) {
			continue
		}
		remaining = append(remaining, user)
		if user.Email != "" {
			emails = append(emails, user.Email)
		}
	}
	if len(emails) == 0 {
		return duplicates, nil
	}

	existing, err := d.entities.ExistingUserEmails(ctx, emails)
	if err != nil {
		return nil, fmt.Errorf("duplicate: batch email lookup: %w", err)
	}
	for _, user := range remaining {
		if _, ok := existing[user.Email]; ok {
			duplicates.add(user.ExternalID)
		}
	}
	return duplicates, nil
}

// DetectDuplicateBanks classifies banks. userIDs maps owner external IDs to local user IDs
// and normally comes from the caller's bulk reference resolution. Banks whose owner is
// unresolved are left for the caller to reject as missing references.
func (d *Detector) DetectDuplicateBanks(ctx context.Context, banks []BankCandidate, userIDs map[string]string) (Set, error) {
	externalIDs := make([]string, 0, len(banks))
	normalized := make([]BankCandidate, 0, len(banks))
	for _, bank := range banks {
		bank = bank.normalized()
		normalized = append(normalized, bank)
		externalIDs = append(externalIDs, bank.ExternalID)
	}
	banks = normalized
	duplicates, err := d.mappedIDs(ctx, externalIDs, models.EntityTypeBank)
	if err != nil {
		return nil, err
	}
	return d.classifyBanks(ctx, banks, userIDs, duplicates)
}

// ClassifyBanks completes bank detection when the caller has already run the bulk
// mapping lookup (mapped holds the external IDs that have a mapping).
func (d *Detector) ClassifyBanks(ctx context.Context, banks []BankCandidate, userIDs map[string]string, mapped Set) (Set, error) {
	return d.classifyBanks(ctx, banks, userIDs, mapped.clone())
}

func (d *Detector) classifyBanks(ctx context.Context, banks []BankCandidate, userIDs map[string]string, duplicates Set) (Set, error) {
	for _, bank := range banks {
		if duplicates.Has(bank.ExternalID) {
			continue
		}
		userID, ok := userIDs[bank.UserExternalID]
		if !ok {
			continue
		}
		taken, errTaken := d.bankNameTaken(ctx, userID, bank.Name)
		if errTaken != nil {
			return nil, errTaken
		}
		if taken {
			duplicates.add(bank.ExternalID)
		}
	}
	return duplicates, nil
}

// DetectDuplicateTransactions classifies transactions. bankIDs maps bank external IDs to
// local bank IDs; the amount/date heuristic runs only for records without a mapping whose
// bank resolved.
func (d *Detector) DetectDuplicateTransactions(ctx context.Context, transactions []TransactionCandidate, bankIDs map[string]string) (Set, error) {
	externalIDs := make([]string, 0, len(transactions))
	normalized := make([]TransactionCandidate, 0, len(transactions))
	for _, transaction := range transactions {
		transaction = transaction.normalized()
		normalized = append(normalized, transaction)
		externalIDs = append(externalIDs, transaction.ExternalID)
	}
	transactions = normalized
	duplicates, err := d.mappedIDs(ctx, externalIDs, models.EntityTypeTransaction)
	if err != nil {
		return nil, err
	}
	return d.classifyTransactions(ctx, transactions, bankIDs, duplicates)
}

// ClassifyTransactions completes transaction detection when the caller has already run
// the bulk mapping lookup (mapped holds the external IDs that have a mapping).
func (d *Detector) ClassifyTransactions(ctx context.Context, transactions []TransactionCandidate, bankIDs map[string]string, mapped Set) (Set, error) {
	return d.classifyTransactions(ctx, transactions, bankIDs, mapped.clone())
}

func (d *Detector) classifyTransactions(ctx context.Context, transactions []TransactionCandidate, bankIDs map[string]string, duplicates Set) (Set, error) {
	for _, transaction := range transactions {
		if duplicates.Has(transaction.ExternalID) {
			continue
		}
		bankID, ok := bankIDs[transaction.BankExternalID]
		if !ok {
			continue
		}
		similar, errSimilar := d.similarTransactionExists(ctx, bankID, transaction.Amount, transaction.TransactionDate)
		if errSimilar != nil {
			return nil, errSimilar
		}
		if similar {
			duplicates.add(transaction.ExternalID)
		}
	}
	return duplicates, nil
}

// MappedExternalIDs runs only the bulk mapping lookup for entityType. Callers use it to
// fan the read phase out before finishing with ClassifyBanks or ClassifyTransactions.
func (d *Detector) MappedExternalIDs(ctx context.Context, externalIDs []string, entityType models.EntityType) (Set, error) {
	return d.mappedIDs(ctx, externalIDs, entityType)
}

func (s Set) clone() Set {
	out := make(Set, len(s))
	for externalID := range s {
		out.add(externalID)
	}
	return out
}
