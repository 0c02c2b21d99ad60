package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/automation-hub/hub/internal/config"
	"github.com/automation-hub/hub/internal/mapping"
	"github.com/automation-hub/hub/internal/models"
	"github.com/automation-hub/hub/internal/ratelimit"
)

func writeConfig(t *testing.T) config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	body := strings.Join([]string{
		"database:",
		"  type: sqlite",
		"  path: " + filepath.Join(dir, "hub.db"),
		"jwt:",
		"  secret: test-secret",
		"import:",
		"  module: bank-hub",
	}, "\n") + "\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return config.AppConfig{ConfigPath: path}
}

func openServices(t *testing.T, appCfg config.AppConfig) *Services {
	t.Helper()
	cfg, err := LoadConfig(appCfg)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	svc, err := Open(cfg)
	if err != nil {
		t.Fatalf("open services: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	svc := openServices(t, writeConfig(t))
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "ops@hub.local", "", "s3cret!")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Name != "ops@hub.local" || user.Password == "s3cret!" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if _, errDup := svc.CreateUser(ctx, "ops@hub.local", "Ops", "s3cret!"); !errors.Is(errDup, mapping.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", errDup)
	}
	if _, errShort := svc.CreateUser(ctx, "x@hub.local", "X", "123"); errShort == nil {
		t.Fatalf("expected short password error")
	}
	if _, errEmail := svc.CreateUser(ctx, "not-an-email", "X", "s3cret!"); errEmail == nil {
		t.Fatalf("expected invalid email error")
	}
}

func TestImportFileThenCleanupOrphans(t *testing.T) {
	appCfg := writeConfig(t)
	svc := openServices(t, appCfg)
	ctx := context.Background()

	exportPath := filepath.Join(t.TempDir(), "export.json")
	export := `{
  "users": [{"external_id": "u-1", "name": "Ana", "email": "ana@example.com"}],
  "banks": [{"external_id": "b-1", "user_external_id": "u-1", "name": "Nubank"}],
  "transactions": [{"external_id": "t-1", "bank_external_id": "b-1", "amount": 12.5, "transaction_date": "2026-01-05T08:00:00Z"}]
}`
	if err := os.WriteFile(exportPath, []byte(export), 0600); err != nil {
		t.Fatalf("write export: %v", err)
	}

	report, err := svc.ImportFile(ctx, exportPath)
	if err != nil {
		t.Fatalf("import file: %v", err)
	}
	if report.Successful() != 3 || report.Failed() != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	var run models.ImportRun
	if errFind := svc.DB.Where("entity_type = ?", models.EntityTypeUser).First(&run).Error; errFind != nil {
		t.Fatalf("load import run: %v", errFind)
	}
	if run.Source != models.ImportSourceFile {
		t.Fatalf("expected file source, got %q", run.Source)
	}

	user, errFind := svc.Store.FindUserByEmail(ctx, "ana@example.com")
	if errFind != nil || user == nil {
		t.Fatalf("find user: %v", errFind)
	}
	if _, errDelete := svc.Store.DeleteUser(ctx, user.ID); errDelete != nil {
		t.Fatalf("delete user: %v", errDelete)
	}
	deleted, errCleanup := svc.CleanupOrphans(ctx)
	if errCleanup != nil {
		t.Fatalf("cleanup: %v", errCleanup)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 orphans removed, got %d", deleted)
	}
}

func TestNewEngineServesHealthAndUnknownRoutes(t *testing.T) {
	svc := openServices(t, writeConfig(t))
	engine := NewEngine(svc, ratelimit.NewManager(nil, nil, nil))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v0/users", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated users status = %d", rec.Code)
	}
}

func TestRunServerRequiresJWTSecret(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv(config.EnvJWTSecret, "")
	if err := os.WriteFile(path, []byte("database:\n  type: sqlite\n  path: "+filepath.Join(dir, "hub.db")+"\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := RunServer(context.Background(), config.AppConfig{ConfigPath: path}, 0); !errors.Is(err, ErrMissingJWTSecret) {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}
