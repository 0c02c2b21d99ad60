package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/automation-hub/hub/internal/db"
	"github.com/automation-hub/hub/internal/models"
	"github.com/shopspring/decimal"
)

// CreateUser inserts a user; an existing email surfaces as mapping.ErrConstraintViolation.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("store: create user: nil row")
	}
	return constraintError("create user", s.db.WithContext(ctx).Omit("Banks").Create(user).Error)
}

// CreateBank inserts a bank.
func (s *Store) CreateBank(ctx context.Context, bank *models.Bank) error {
	if bank == nil {
		return fmt.Errorf("store: create bank: nil row")
	}
	return constraintError("create bank", s.db.WithContext(ctx).Omit("User").Create(bank).Error)
}

// CreateTransaction inserts a transaction.
func (s *Store) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	if transaction == nil {
		return fmt.Errorf("store: create transaction: nil row")
	}
	return constraintError("create transaction", s.db.WithContext(ctx).Omit("Bank").Create(transaction).Error)
}

// UserEmailExists reports whether a user with exactly email exists.
func (s *Store) UserEmailExists(ctx context.Context, email string) (bool, error) {
	var ids []string
	errPluck := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Limit(1).
		Pluck("id", &ids).Error
	if errPluck != nil {
		return false, fmt.Errorf("store: user email exists: %w", errPluck)
	}
	return len(ids) > 0, nil
}

// ExistingUserEmails returns the subset of emails that belong to existing users.
func (s *Store) ExistingUserEmails(ctx context.Context, emails []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(emails))
	for _, chunk := range chunks(emails, inChunk) {
		var rows []string
		errPluck := s.db.WithContext(ctx).
			Model(&models.User{}).
			Where("email IN ?", chunk).
			Pluck("email", &rows).Error
		if errPluck != nil {
			return nil, fmt.Errorf("store: existing user emails: %w", errPluck)
		}
		for _, email := range rows {
			found[email] = struct{}{}
		}
	}
	return found, nil
}

// BankNameExists reports whether userID owns a bank named exactly name.
func (s *Store) BankNameExists(ctx context.Context, userID, name string) (bool, error) {
	var ids []string
	errPluck := s.db.WithContext(ctx).
		Model(&models.Bank{}).
		Where("user_id = ? AND name = ?", userID, name).
		Limit(1).
		Pluck("id", &ids).Error
	if errPluck != nil {
		return false, fmt.Errorf("store: bank name exists: %w", errPluck)
	}
	return len(ids) > 0, nil
}

// CountSimilarTransactions counts up to limit transactions of bankID with amount dated in [from, to].
func (s *Store) CountSimilarTransactions(ctx context.Context, bankID string, amount decimal.Decimal, from, to time.Time, limit int) (int, error) {
	var ids []string
	errPluck := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("bank_id = ? AND amount = ?", bankID, amount).
		Where("transaction_date >= ? AND transaction_date <= ?", from.UTC(), to.UTC()).
		Limit(limit).
		Pluck("id", &ids).Error
	if errPluck != nil {
		return 0, fmt.Errorf("store: similar transactions: %w", errPluck)
	}
	return len(ids), nil
}

// GetUser loads a user by id, returning nil when absent.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var rows []models.User
	if errFind := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).Limit(1).Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: get user: %w", errFind)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// FindUserByEmail loads a user by email, returning nil when absent.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var rows []models.User
	if errFind := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).Limit(1).Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: find user by email: %w", errFind)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListUsers pages through users ordered by creation time. A non-empty search matches
// name or email case-insensitively.
func (s *Store) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if search = strings.TrimSpace(search); search != "" {
		pattern := db.NormalizeLikePattern(s.db, "%"+search+"%")
		q = q.Where(db.CaseInsensitiveLikeExpr(s.db, "name")+" OR "+db.CaseInsensitiveLikeExpr(s.db, "email"), pattern, pattern)
	}
	var rows []models.User
	errFind := q.
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("store: list users: %w", errFind)
	}
	return rows, nil
}

// ListBanksByUser lists the banks owned by userID.
func (s *Store) ListBanksByUser(ctx context.Context, userID string) ([]models.Bank, error) {
	var rows []models.Bank
	if errFind := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: list banks: %w", errFind)
	}
	return rows, nil
}

// GetBank loads a bank by id, returning nil when absent.
func (s *Store) GetBank(ctx context.Context, id string) (*models.Bank, error) {
	var rows []models.Bank
	if errFind := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).Limit(1).Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: get bank: %w", errFind)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListTransactionsByBank lists the transactions of bankID, newest first.
func (s *Store) ListTransactionsByBank(ctx context.Context, bankID string, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	errFind := s.db.WithContext(ctx).
		Where("bank_id = ?", bankID).
		Order("transaction_date DESC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("store: list transactions: %w", errFind)
	}
	return rows, nil
}

// DeleteUser removes a user together with its banks and their transactions.
// Mappings are left in place; orphan cleanup reclaims them. The bool is false when no user matched.
func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	var deleted bool
	errTx := s.Transaction(ctx, func(tx *Store) error {
		bankIDs := tx.db.Model(&models.Bank{}).Select("id").Where("user_id = ?", id)
		if errTxns := tx.db.Where("bank_id IN (?)", bankIDs).Delete(&models.Transaction{}).Error; errTxns != nil {
			return fmt.Errorf("delete transactions: %w", errTxns)
		}
		if errBanks := tx.db.Where("user_id = ?", id).Delete(&models.Bank{}).Error; errBanks != nil {
			return fmt.Errorf("delete banks: %w", errBanks)
		}
		res := tx.db.Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return fmt.Errorf("delete user: %w", res.Error)
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if errTx != nil {
		return false, fmt.Errorf("store: %w", errTx)
	}
	return deleted, nil
}

// DeleteBank removes a bank and its transactions.
func (s *Store) DeleteBank(ctx context.Context, id string) (bool, error) {
	var deleted bool
	errTx := s.Transaction(ctx, func(tx *Store) error {
		if errTxns := tx.db.Where("bank_id = ?", id).Delete(&models.Transaction{}).Error; errTxns != nil {
			return fmt.Errorf("delete transactions: %w", errTxns)
		}
		res := tx.db.Where("id = ?", id).Delete(&models.Bank{})
		if res.Error != nil {
			return fmt.Errorf("delete bank: %w", res.Error)
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if errTx != nil {
		return false, fmt.Errorf("store: %w", errTx)
	}
	return deleted, nil
}

// DeleteTransaction removes a single transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Transaction{})
	if res.Error != nil {
		return false, fmt.Errorf("store: delete transaction: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
