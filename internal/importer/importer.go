// Package importer turns foreign user, bank, and transaction records into local entities.
//
// Each record moves through reference resolution, duplicate detection, and creation.
// Creation of the entity and its external mapping shares one transaction, so a unique
// violation from a concurrent import rolls the entity back and reports a duplicate.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/automation-hub/hub/internal/duplicate"
	"github.com/automation-hub/hub/internal/mapping"
	"github.com/automation-hub/hub/internal/models"
	"github.com/automation-hub/hub/internal/settings"
)

// Config tunes the importer.
type Config struct {
	// ExternalIDLimit caps diagnostic external id listings.
	ExternalIDLimit int
}

// Importer orchestrates record imports.
type Importer struct {
	store    Store
	stats    Stats
	mappings *mapping.Service
	detector *duplicate.Detector
	cfg      Config
	source   models.ImportSource
	now      func() time.Time
}

// New constructs an Importer recording runs as API imports.
func New(store Store, stats Stats, mappings *mapping.Service, detector *duplicate.Detector, cfg Config) *Importer {
	if cfg.ExternalIDLimit <= 0 {
		cfg.ExternalIDLimit = settings.DefaultExternalIDLimit
	}
	return &Importer{
		store:    store,
		stats:    stats,
		mappings: mappings,
		detector: detector,
		cfg:      cfg,
		source:   models.ImportSourceAPI,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithSource returns a copy of the importer that tags recorded runs with source.
func (im *Importer) WithSource(source models.ImportSource) *Importer {
	clone := *im
	clone.source = source
	return &clone
}

// Module returns the foreign system namespace imports are registered under.
func (im *Importer) Module() string {
	return im.detector.Module()
}

func userDuplicateMessage(in UserInput) string {
	return fmt.Sprintf("User with email %s or external_id %s already exists", in.Email, in.ExternalID)
}

func bankDuplicateMessage(in BankInput) string {
	return fmt.Sprintf("Bank %s already exists for this user", in.Name)
}

const transactionDuplicateMessage = "Transaction already exists"

func rejected(externalID string, reason Reason, message string) Result {
	return Result{Success: false, Reason: reason, Message: message, ExternalID: externalID}
}

func imported(externalID, internalID, kind string) Result {
	return Result{
		Success:    true,
		Reason:     ReasonImported,
		Message:    fmt.Sprintf("%s imported successfully", kind),
		InternalID: internalID,
		ExternalID: externalID,
	}
}

// creationFailure classifies an error from the atomic create step.
func creationFailure(externalID, kind, duplicateMessage string, err error) Result {
	if errors.Is(err, mapping.ErrConstraintViolation) {
		return rejected(externalID, ReasonDuplicate, duplicateMessage+" (rejected by unique constraint)")
	}
	return rejected(externalID, ReasonFailed, fmt.Sprintf("Failed to import %s: %v", strings.ToLower(kind), err))
}

func (im *Importer) createdAt(value *time.Time) time.Time {
	if value == nil || value.IsZero() {
		return im.now()
	}
	return value.UTC()
}

// ImportUser imports a single user. Store failures during lookup are returned; failures
// during creation are reported in the result.
func (im *Importer) ImportUser(ctx context.Context, in UserInput) (Result, error) {
	in = in.normalized()
	if msg := in.validate(); msg != "" {
		return rejected(in.ExternalID, ReasonInvalid, msg), nil
	}
	isDuplicate, err := im.detector.IsUserDuplicate(ctx, in.ExternalID, in.Email)
	if err != nil {
		return Result{}, fmt.Errorf("importer: user duplicate check: %w", err)
	}
	if isDuplicate {
		return rejected(in.ExternalID, ReasonDuplicate, userDuplicateMessage(in)), nil
	}
	return im.createUser(ctx, in), nil
}

func (im *Importer) createUser(ctx context.Context, in UserInput) Result {
	password := settings.ImportedUserPassword
	if in.PasswordHash != nil && strings.TrimSpace(*in.PasswordHash) != "" {
		password = *in.PasswordHash
	}
	now := im.now()
	user := &models.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  password,
		CreatedAt: im.createdAt(in.CreatedAt),
		UpdatedAt: now,
	}
	errAtomic := im.store.Atomic(ctx, func(tx TxStore) error {
		if errCreate := tx.CreateUser(ctx, user); errCreate != nil {
			return errCreate
		}
		return im.register(ctx, tx, in.ExternalID, user.ID, models.EntityTypeUser, in.Metadata)
	})
	if errAtomic != nil {
		return creationFailure(in.ExternalID, "User", userDuplicateMessage(in), errAtomic)
	}
	return imported(in.ExternalID, user.ID, "User")
}

// ImportBank imports a single bank whose owner must already be mapped.
func (im *Importer) ImportBank(ctx context.Context, in BankInput) (Result, error) {
	in = in.normalized()
	if msg := in.validate(); msg != "" {
		return rejected(in.ExternalID, ReasonInvalid, msg), nil
	}
	userID, found, err := im.mappings.GetInternalID(ctx, in.UserExternalID, models.EntityTypeUser, im.Module())
	if err != nil {
		return Result{}, fmt.Errorf("importer: resolve bank owner: %w", err)
	}
	if !found {
		return rejected(in.ExternalID, ReasonMissingReference, fmt.Sprintf("User with external_id %s not found", in.UserExternalID)), nil
	}
	isDuplicate, err := im.detector.IsBankDuplicateForUser(ctx, in.ExternalID, userID, in.Name)
	if err != nil {
		return Result{}, fmt.Errorf("importer: bank duplicate check: %w", err)
	}
	if isDuplicate {
		return rejected(in.ExternalID, ReasonDuplicate, bankDuplicateMessage(in)), nil
	}
	return im.createBank(ctx, in, userID), nil
}

func (im *Importer) createBank(ctx context.Context, in BankInput, userID string) Result {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	bank := &models.Bank{
		UserID:    userID,
		Name:      in.Name,
		Type:      in.Type,
		IsActive:  active,
		CreatedAt: im.createdAt(in.CreatedAt),
		UpdatedAt: im.now(),
	}
	errAtomic := im.store.Atomic(ctx, func(tx TxStore) error {
		if errCreate := tx.CreateBank(ctx, bank); errCreate != nil {
			return errCreate
		}
		return im.register(ctx, tx, in.ExternalID, bank.ID, models.EntityTypeBank, in.Metadata)
	})
	if errAtomic != nil {
		return creationFailure(in.ExternalID, "Bank", bankDuplicateMessage(in), errAtomic)
	}
	return imported(in.ExternalID, bank.ID, "Bank")
}

// ImportTransaction imports a single transaction whose bank must already be mapped.
func (im *Importer) ImportTransaction(ctx context.Context, in TransactionInput) (Result, error) {
	in = in.normalized()
	if msg := in.validate(); msg != "" {
		return rejected(in.ExternalID, ReasonInvalid, msg), nil
	}
	bankID, found, err := im.mappings.GetInternalID(ctx, in.BankExternalID, models.EntityTypeBank, im.Module())
	if err != nil {
		return Result{}, fmt.Errorf("importer: resolve transaction bank: %w", err)
	}
	if !found {
		return rejected(in.ExternalID, ReasonMissingReference, fmt.Sprintf("Bank with external_id %s not found", in.BankExternalID)), nil
	}
	isDuplicate, err := im.detector.IsTransactionDuplicate(ctx, in.ExternalID, *in.Amount, in.TransactionDate, bankID)
	if err != nil {
		return Result{}, fmt.Errorf("importer: transaction duplicate check: %w", err)
	}
	if isDuplicate {
		return rejected(in.ExternalID, ReasonDuplicate, transactionDuplicateMessage), nil
	}
	return im.createTransaction(ctx, in, bankID), nil
}

func (im *Importer) createTransaction(ctx context.Context, in TransactionInput, bankID string) Result {
	transaction := &models.Transaction{
		BankID:          bankID,
		Amount:          *in.Amount,
		Description:     in.Description,
		Category:        in.Category,
		Type:            in.Type,
		TransactionDate: in.TransactionDate.UTC(),
		CreatedAt:       im.createdAt(in.CreatedAt),
		UpdatedAt:       im.now(),
	}
	errAtomic := im.store.Atomic(ctx, func(tx TxStore) error {
		if errCreate := tx.CreateTransaction(ctx, transaction); errCreate != nil {
			return errCreate
		}
		return im.register(ctx, tx, in.ExternalID, transaction.ID, models.EntityTypeTransaction, in.Metadata)
	})
	if errAtomic != nil {
		return creationFailure(in.ExternalID, "Transaction", transactionDuplicateMessage, errAtomic)
	}
	return imported(in.ExternalID, transaction.ID, "Transaction")
}

// register writes the external mapping through the transaction-bound store.
func (im *Importer) register(ctx context.Context, tx TxStore, externalID, internalID string, entityType models.EntityType, metadata *string) error {
	row, err := mapping.NewMapping(externalID, internalID, entityType, im.Module(), metadata)
	if err != nil {
		return err
	}
	return tx.CreateMapping(ctx, row)
}
