// Package duplicate decides whether an incoming record was already imported.
//
// A mapping for (external_id, module, entity_type) is authoritative. Without one, each
// entity kind falls back to a heuristic against persisted rows only: sibling records of
// the same batch are never compared with each other, so verdicts do not depend on order.
package duplicate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/automation-hub/hub/internal/mapping"
	"github.com/automation-hub/hub/internal/models"
	"github.com/automation-hub/hub/internal/settings"
	"github.com/shopspring/decimal"
)

// EntityReader exposes the read queries the heuristic tier needs.
type EntityReader interface {
	UserEmailExists(ctx context.Context, email string) (bool, error)
	// ExistingUserEmails returns the subset of emails already present.
	ExistingUserEmails(ctx context.Context, emails []string) (map[string]struct{}, error)
	// BankNameExists matches the name exactly (case-sensitive) among banks of userID.
	BankNameExists(ctx context.Context, userID, name string) (bool, error)
	// CountSimilarTransactions counts, up to limit, transactions of bankID with the exact
	// amount and a transaction date within [from, to].
	CountSimilarTransactions(ctx context.Context, bankID string, amount decimal.Decimal, from, to time.Time, limit int) (int, error)
}

// Config tunes the heuristic tier.
type Config struct {
	// Module is the foreign system namespace used for mapping lookups.
	Module string
	// Window is the half-width of the transaction date match window.
	Window time.Duration
	// CandidateLimit caps heuristic queries. The predicate is "any match", so it only bounds cost.
	CandidateLimit int
}

func (c Config) withDefaults() Config {
	c.Module = strings.TrimSpace(c.Module)
	if c.Module == "" {
		c.Module = settings.DefaultModule
	}
	if c.Window <= 0 {
		c.Window = settings.DefaultDuplicateWindow
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = settings.DefaultCandidateLimit
	}
	return c
}

// Detector classifies user, bank, and transaction records.
type Detector struct {
	mappings *mapping.Service
	entities EntityReader
	cfg      Config
}

// NewDetector constructs a Detector; zero config fields fall back to defaults.
func NewDetector(mappings *mapping.Service, entities EntityReader, cfg Config) *Detector {
	return &Detector{
		mappings: mappings,
		entities: entities,
		cfg:      cfg.withDefaults(),
	}
}

// Module returns the foreign system namespace the detector checks against.
func (d *Detector) Module() string {
	return d.cfg.Module
}

// Set holds external IDs classified as duplicates.
type Set map[string]struct{}

// Has reports whether externalID, ignoring surrounding whitespace, is in the set.
func (s Set) Has(externalID string) bool {
	_, ok := s[strings.TrimSpace(externalID)]
	return ok
}

func (s Set) add(externalID string) {
	s[externalID] = struct{}{}
}

// IsUserDuplicate reports whether a user was imported already, by mapping or by email.
func (d *Detector) IsUserDuplicate(ctx context.Context, externalID, email string) (bool, error) {
	if _, found, err := d.mappings.GetInternalID(ctx, externalID, models.EntityTypeUser, d.cfg.Module); err != nil {
		return false, err
	} else if found {
		return true, nil
	}
	exists, err := d.entities.UserEmailExists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("duplicate: user email lookup: %w", err)
	}
	return exists, nil
}

// IsBankDuplicate reports whether a bank was imported already. When the owning user has no
// mapping there is nothing to compare against and the bank counts as new.
func (d *Detector) IsBankDuplicate(ctx context.Context, externalID, userExternalID, name string) (bool, error) {
	if _, found, err := d.mappings.GetInternalID(ctx, externalID, models.EntityTypeBank, d.cfg.Module); err != nil {
		return false, err
	} else if found {
		return true, nil
	}
	userID, found, err := d.mappings.GetInternalID(ctx, userExternalID, models.EntityTypeUser, d.cfg.Module)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return d.bankNameTaken(ctx, userID, name)
}

// IsBankDuplicateForUser is IsBankDuplicate for callers that already resolved the owner
// to its local user id.
func (d *Detector) IsBankDuplicateForUser(ctx context.Context, externalID, userID, name string) (bool, error) {
	if _, found, err := d.mappings.GetInternalID(ctx, externalID, models.EntityTypeBank, d.cfg.Module); err != nil {
		return false, err
	} else if found {
		return true, nil
	}
	return d.bankNameTaken(ctx, userID, name)
}

// IsTransactionDuplicate reports whether a transaction was imported already, by mapping
// or by an equal amount on the same local bank within the date window.
func (d *Detector) IsTransactionDuplicate(ctx context.Context, externalID string, amount decimal.Decimal, date time.Time, bankID string) (bool, error) {
	if _, found, err := d.mappings.GetInternalID(ctx, externalID, models.EntityTypeTransaction, d.cfg.Module); err != nil {
		return false, err
	} else if found {
		return true, nil
	}
	return d.similarTransactionExists(ctx, bankID, amount, date)
}

func (d *Detector) bankNameTaken(ctx context.Context, userID, name string) (bool, error) {
	exists, err := d.entities.BankNameExists(ctx, userID, name)
	if err != nil {
		return false, fmt.Errorf("duplicate: bank name lookup: %w", err)
	}
	return exists, nil
}

// similarTransactionExists applies the amount/date heuristic. It can flag two genuinely
// distinct same-amount transactions within the window, and it misses duplicates whose
// amount or date the source altered.
func (d *Detector) similarTransactionExists(ctx context.Context, bankID string, amount decimal.Decimal, date time.Time) (bool, error) {
	date = date.UTC()
	from := date.Add(-d.cfg.Window)
	to := date.Add(d.cfg.Window)
	count, err := d.entities.CountSimilarTransactions(ctx, bankID, amount, from, to, d.cfg.CandidateLimit)
	if err != nil {
		return false, fmt.Errorf("duplicate: similar transaction lookup: %w", err)
	}
	return count > 0, nil
}
