package duplicate_test

import (
	"context"
	"testing"
	"time"

	"github.com/automation-hub/hub/internal/duplicate"
	"github.com/automation-hub/hub/internal/models"
	"github.com/shopspring/decimal"
)

func TestDetectDuplicateUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedBank(t)

	got, err := f.detector.DetectDuplicateUsers(ctx, []duplicate.UserCandidate{
		{ExternalID: "user-ext", Email: "fresh@example.com"},
		{ExternalID: "u-2", Email: "ana@example.com"},
		{ExternalID: "u-3", Email: "new@example.com"},
		{ExternalID: "u-4", Email: "new@example.com"},
	})
	if err != nil {
		t.Fatalf("detect users: %v", err)
	}
	if !got.Has("user-ext") || !got.Has("u-2") {
		t.Fatalf("expected user-ext and u-2 flagged, got %v", got)
	}
	if got.Has("u-3") || got.Has("u-4") {
		t.Fatalf("batch siblings must not be compared with each other, got %v", got)
	}
}

func TestDetectDuplicateBanks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID, _ := f.seedBank(t)

	got, err := f.detector.DetectDuplicateBanks(ctx, []duplicate.BankCandidate{
		{ExternalID: "bank-ext", UserExternalID: "user-ext", Name: "Anything"},
		{ExternalID: "b-2", UserExternalID: "user-ext", Name: "Nubank"},
		{ExternalID: "b-3", UserExternalID: "user-ext", Name: "Inter"},
		{ExternalID: "b-4", UserExternalID: "ghost", Name: "Nubank"},
	}, map[string]string{"user-ext": userID})
	if err != nil {
		t.Fatalf("detect banks: %v", err)
	}
	if !got.Has("bank-ext") || !got.Has("b-2") {
		t.Fatalf("expected bank-ext and b-2 flagged, got %v", got)
	}
	if got.Has("b-3") || got.Has("b-4") {
		t.Fatalf("unexpected flags: %v", got)
	}
}

func TestDetectDuplicateTransactionsIsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, bankID := f.seedBank(t)
	when := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	if err := f.store.CreateTransaction(ctx, &models.Transaction{BankID: bankID, Amount: decimal.NewFromInt(100), TransactionDate: when}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	batch := []duplicate.TransactionCandidate{
		{ExternalID: "t-1", BankExternalID: "bank-ext", Amount: decimal.NewFromInt(100), TransactionDate: when.Add(9 * time.Hour)},
		{ExternalID: "t-2", BankExternalID: "bank-ext", Amount: decimal.NewFromInt(100), TransactionDate: when.Add(48 * time.Hour)},
		{ExternalID: "t-3", BankExternalID: "ghost", Amount: decimal.NewFromInt(100), TransactionDate: when},
	}
	reversed := []duplicate.TransactionCandidate{batch[2], batch[1], batch[0]}
	bankIDs := map[string]string{"bank-ext": bankID}

	for name, input := range map[string][]duplicate.TransactionCandidate{"forward": batch, "reversed": reversed} {
		got, err := f.detector.DetectDuplicateTransactions(ctx, input, bankIDs)
		if err != nil {
			t.Fatalf("%s: detect transactions: %v", name, err)
		}
		if len(got) != 1 || !got.Has("t-1") {
			t.Fatalf("%s: expected only t-1 flagged, got %v", name, got)
		}
	}
}

func TestDetectTrimsCandidateIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID, bankID := f.seedBank(t)
	when := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	if err := f.store.CreateTransaction(ctx, &models.Transaction{BankID: bankID, Amount: decimal.NewFromInt(100), TransactionDate: when}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	users, err := f.detector.DetectDuplicateUsers(ctx, []duplicate.UserCandidate{
		{ExternalID: " user-ext ", Email: "fresh@example.com"},
		{ExternalID: " u-2", Email: " ana@example.com "},
	})
	if err != nil {
		t.Fatalf("detect users: %v", err)
	}
	if !users.Has("user-ext") || !users.Has(" user-ext ") || !users.Has("u-2") {
		t.Fatalf("expected padded user ids flagged, got %v", users)
	}

	banks, err := f.detector.DetectDuplicateBanks(ctx, []duplicate.BankCandidate{
		{ExternalID: "\tbank-ext", UserExternalID: "user-ext", Name: "Anything"},
		{ExternalID: "b-2", UserExternalID: " user-ext ", Name: "Nubank"},
	}, map[string]string{"user-ext": userID})
	if err != nil {
		t.Fatalf("detect banks: %v", err)
	}
	if !banks.Has("bank-ext") || !banks.Has("b-2") {
		t.Fatalf("expected padded bank ids flagged, got %v", banks)
	}

	transactions, err := f.detector.DetectDuplicateTransactions(ctx, []duplicate.TransactionCandidate{
		{ExternalID: " t-1 ", BankExternalID: " bank-ext ", Amount: decimal.NewFromInt(100), TransactionDate: when.Add(time.Hour)},
	}, map[string]string{"bank-ext": bankID})
	if err != nil {
		t.Fatalf("detect transactions: %v", err)
	}
	if !transactions.Has("t-1") {
		t.Fatalf("expected padded transaction flagged, got %v", transactions)
	}
}
