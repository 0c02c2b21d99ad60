package duplicate_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/automation-hub/hub/internal/db"
	"github.com/automation-hub/hub/internal/duplicate"
	"github.com/automation-hub/hub/internal/mapping"
	"github.com/automation-hub/hub/internal/models"
	"github.com/automation-hub/hub/internal/store"
	"github.com/shopspring/decimal"
)

type fixture struct {
	store    *store.Store
	mappings *mapping.Service
	detector *duplicate.Detector
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "hub-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	st := store.New(conn)
	mappings := mapping.NewService(st)
	return fixture{
		store:    st,
		mappings: mappings,
		detector: duplicate.NewDetector(mappings, st, duplicate.Config{}),
	}
}

// seedBank creates a mapped user "user-ext" owning a mapped bank "bank-ext".
func (f fixture) seedBank(t *testing.T) (userID, bankID string) {
	t.Helper()
	ctx := context.Background()
	user := &models.User{Name: "Ana", Email: "ana@example.com", Password: "imported_user"}
	if err := f.store.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := f.mappings.CreateMapping(ctx, "user-ext", user.ID, models.EntityTypeUser, "bank-hub", nil); err != nil {
		t.Fatalf("map user: %v", err)
	}
	bank := &models.Bank{UserID: user.ID, Name: "Nubank", IsActive: true}
	if err := f.store.CreateBank(ctx, bank); err != nil {
		t.Fatalf("create bank: %v", err)
	}
	if err := f.mappings.CreateMapping(ctx, "bank-ext", bank.ID, models.EntityTypeBank, "bank-hub", nil); err != nil {
		t.Fatalf("map bank: %v", err)
	}
	return user.ID, bank.ID
}

func TestIsUserDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedBank(t)

	cases := []struct {
		name       string
		externalID string
		email      string
		want       bool
	}{
		{"mapped external id", "user-ext", "new@example.com", true},
		{"same email", "other-ext", "ana@example.com", true},
		{"email differs in case", "other-ext", "ANA@example.com", false},
		{"new user", "other-ext", "new@example.com", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.detector.IsUserDuplicate(ctx, tc.externalID, tc.email)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIsBankDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedBank(t)

	cases := []struct {
		name           string
		externalID     string
		userExternalID string
		bankName       string
		want           bool
	}{
		{"mapped external id", "bank-ext", "user-ext", "Whatever", true},
		{"same name same user", "bank-2", "user-ext", "Nubank", true},
		{"name differs in case", "bank-2", "user-ext", "nubank", false},
		{"owner unmapped", "bank-2", "ghost", "Nubank", false},
		{"new bank", "bank-2", "user-ext", "Itau", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.detector.IsBankDuplicate(ctx, tc.externalID, tc.userExternalID, tc.bankName)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIsTransactionDuplicateWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, bankID := f.seedBank(t)

	existing := &models.Transaction{
		BankID:          bankID,
		Amount:          decimal.RequireFromString("100.00"),
		TransactionDate: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
	}
	if err := f.store.CreateTransaction(ctx, existing); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	cases := []struct {
		name   string
		amount string
		date   time.Time
		want   bool
	}{
		{"nine hours later", "100.00", time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC), true},
		{"exactly one window later", "100.00", time.Date(2024, 1, 16, 12, 0, 0, 0, time.UTC), true},
		{"forty eight hours later", "100.00", time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC), false},
		{"different amount", "100.01", time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC), false},
		{"offset timezone same instant", "100", time.Date(2024, 1, 15, 9, 0, 0, 0, time.FixedZone("BRT", -3*3600)), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.detector.IsTransactionDuplicate(ctx, "txn-new", decimal.RequireFromString(tc.amount), tc.date, bankID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIsTransactionDuplicateByMapping(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, bankID := f.seedBank(t)
	if err := f.mappings.CreateMapping(ctx, "txn-1", "whatever", models.EntityTypeTransaction, "bank-hub", nil); err != nil {
		t.Fatalf("map transaction: %v", err)
	}
	got, err := f.detector.IsTransactionDuplicate(ctx, "txn-1", decimal.NewFromInt(5), time.Now(), bankID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Fatalf("mapped transaction must be a duplicate")
	}
}

func TestDetectorHonorsConfiguredWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, bankID := f.seedBank(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := f.store.CreateTransaction(ctx, &models.Transaction{BankID: bankID, Amount: decimal.NewFromInt(42), TransactionDate: base}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	narrow := duplicate.NewDetector(f.mappings, f.store, duplicate.Config{Window: time.Hour})
	got, err := narrow.IsTransactionDuplicate(ctx, "txn-x", decimal.NewFromInt(42), base.Add(2*time.Hour), bankID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Fatalf("two hours apart must be new with a one hour window")
	}
}

func TestIsBankDuplicateForUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID, _ := f.seedBank(t)

	cases := []struct {
		name       string
		externalID string
		userID     string
		bankName   string
		want       bool
	}{
		{"mapped external id", "bank-ext", "some-other-user", "Whatever", true},
		{"same name same user", "bank-2", userID, "Nubank", true},
		{"same name other user", "bank-2", "some-other-user", "Nubank", false},
		{"new bank", "bank-2", userID, "Itau", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.detector.IsBankDuplicateForUser(ctx, tc.externalID, tc.userID, tc.bankName)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
