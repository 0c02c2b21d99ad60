package mapping_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/automation-hub/hub/internal/db"
	"github.com/automation-hub/hub/internal/mapping"
	"github.com/automation-hub/hub/internal/models"
	"github.com/automation-hub/hub/internal/store"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "hub-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	t.Cleanup(func() {
		if sqlDB, errDB := conn.DB(); errDB == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func TestCreateMappingThenLookup(t *testing.T) {
	ctx := context.Background()
	svc := mapping.NewService(store.New(openTestDB(t)))

	metadata := `{"source":"test"}`
	if err := svc.CreateMapping(ctx, "ext-1", "int-1", models.EntityTypeUser, "bank-hub", &metadata); err != nil {
		t.Fatalf("create mapping: %v", err)
	}

	internalID, found, err := svc.GetInternalID(ctx, "ext-1", models.EntityTypeUser, "bank-hub")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !found || internalID != "int-1" {
		t.Fatalf("expected int-1, got %q (found=%v)", internalID, found)
	}

	if _, found, _ = svc.GetInternalID(ctx, "ext-1", models.EntityTypeBank, "bank-hub"); found {
		t.Fatalf("expected no bank mapping for user external id")
	}
	if _, found, _ = svc.GetInternalID(ctx, "ext-1", models.EntityTypeUser, "other"); found {
		t.Fatalf("expected no mapping in other module")
	}
}

func TestCreateMappingRejectsDuplicateTriple(t *testing.T) {
	ctx := context.Background()
	svc := mapping.NewService(store.New(openTestDB(t)))

	if err := svc.CreateMapping(ctx, "ext-1", "int-1", models.EntityTypeUser, "bank-hub", nil); err != nil {
		t.Fatalf("create mapping: %v", err)
	}
	err := svc.CreateMapping(ctx, "ext-1", "int-2", models.EntityTypeUser, "bank-hub", nil)
	if !errors.Is(err, mapping.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}

	if err = svc.CreateMapping(ctx, "ext-1", "int-3", models.EntityTypeBank, "bank-hub", nil); err != nil {
		t.Fatalf("same external id for another entity type should succeed: %v", err)
	}
}

func TestCreateMappingValidatesInput(t *testing.T) {
	svc := mapping.NewService(store.New(openTestDB(t)))
	cases := []struct {
		name       string
		externalID string
		internalID string
		entityType models.EntityType
		module     string
	}{
		{"missing external id", " ", "int", models.EntityTypeUser, "bank-hub"},
		{"missing internal id", "ext", "", models.EntityTypeUser, "bank-hub"},
		{"missing module", "ext", "int", models.EntityTypeUser, ""},
		{"unknown entity type", "ext", "int", models.EntityType("account"), "bank-hub"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.CreateMapping(context.Background(), tc.externalID, tc.internalID, tc.entityType, tc.module, nil)
			if !errors.Is(err, mapping.ErrInvalidMapping) {
				t.Fatalf("expected ErrInvalidMapping, got %v", err)
			}
		})
	}
}

func TestGetBatchInternalIDs(t *testing.T) {
	ctx := context.Background()
	svc := mapping.NewService(store.New(openTestDB(t)))

	for _, pair := range [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}} {
		if err := svc.CreateMapping(ctx, pair[0], pair[1], models.EntityTypeBank, "bank-hub", nil); err != nil {
			t.Fatalf("create mapping %s: %v", pair[0], err)
		}
	}

	got, err := svc.GetBatchInternalIDs(ctx, []string{"a", "c", "missing", "a", ""}, models.EntityTypeBank, "bank-hub")
	if err != nil {
		t.Fatalf("batch lookup: %v", err)
	}
	if len(got) != 2 || got["a"] != "1" || got["c"] != "3" {
		t.Fatalf("unexpected batch result: %v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Fatalf("unmapped id must be absent")
	}

	empty, err := svc.GetBatchInternalIDs(ctx, nil, models.EntityTypeBank, "bank-hub")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result, got %v (%v)", empty, err)
	}
}

func TestLookupsDoNotMutate(t *testing.T) {
	ctx := context.Background()
	svc := mapping.NewService(store.New(openTestDB(t)))
	if err := svc.CreateMapping(ctx, "ext", "int", models.EntityTypeTransaction, "bank-hub", nil); err != nil {
		t.Fatalf("create mapping: %v", err)
	}

	for i := 0; i < 3; i++ {
		id, found, err := svc.GetInternalID(ctx, "ext", models.EntityTypeTransaction, "bank-hub")
		if err != nil || !found || id != "int" {
			t.Fatalf("iteration %d: got %q found=%v err=%v", i, id, found, err)
		}
		batch, err := svc.GetBatchInternalIDs(ctx, []string{"ext", "nope"}, models.EntityTypeTransaction, "bank-hub")
		if err != nil || len(batch) != 1 {
			t.Fatalf("iteration %d: batch=%v err=%v", i, batch, err)
		}
	}
	count, err := svc.CountMappings(ctx, "bank-hub")
	if err != nil || count != 1 {
		t.Fatalf("expected 1 mapping, got %d (%v)", count, err)
	}
}

func TestExternalIDsRespectsLimit(t *testing.T) {
	ctx := context.Background()
	svc := mapping.NewService(store.New(openTestDB(t)))
	for _, id := range []string{"u1", "u2", "u3"} {
		if err := svc.CreateMapping(ctx, id, "int-"+id, models.EntityTypeUser, "bank-hub", nil); err != nil {
			t.Fatalf("create mapping: %v", err)
		}
	}
	ids, err := svc.ExternalIDs(ctx, models.EntityTypeUser, "bank-hub", 2)
	if err != nil {
		t.Fatalf("external ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != "u1" || ids[1] != "u2" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestUniqueIDs(t *testing.T) {
	got := mapping.UniqueIDs([]string{" a", "b", "a", "", "c ", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
