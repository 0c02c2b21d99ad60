package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/automation-hub/hub/internal/config"
	"github.com/automation-hub/hub/internal/db"
	"github.com/automation-hub/hub/internal/duplicate"
	"github.com/automation-hub/hub/internal/importer"
	"github.com/automation-hub/hub/internal/mapping"
	"github.com/automation-hub/hub/internal/models"
	"github.com/automation-hub/hub/internal/ratelimit"
	"github.com/automation-hub/hub/internal/security"
	"github.com/automation-hub/hub/internal/store"
	"github.com/gin-gonic/gin"
)

type testServer struct {
	engine *gin.Engine
	store  *store.Store
	token  string
}

func newTestServer(t *testing.T, limit int) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "hub-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	st := store.New(conn)
	mappings := mapping.NewService(st)
	detector := duplicate.NewDetector(mappings, st, duplicate.Config{})
	imp := importer.New(st, st, mappings, detector, importer.Config{})

	hash, errHash := security.HashPassword("s3cret")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	if errCreate := st.CreateUser(context.Background(), &models.User{Name: "Operator", Email: "ops@hub.local", Password: hash}); errCreate != nil {
		t.Fatalf("create operator: %v", errCreate)
	}

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	settings := ratelimit.NewSettingsStore(ratelimit.SettingsConfig{Limit: limit})
	limiter := ratelimit.NewManager(settings.Load, func() time.Time { return fixed }, nil)

	r := gin.New()
	RegisterAdminRoutes(r, Deps{
		Store:    st,
		Importer: imp,
		Mappings: mappings,
		Limiter:  limiter,
		JWT:      config.JWTConfig{Secret: "test-secret", Expiry: time.Hour},
	})
	srv := testServer{engine: r, store: st}
	srv.token = srv.login(t, "ops@hub.local", "s3cret", http.StatusOK)
	return srv
}

func (s testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var errMarshal error
		payload, errMarshal = json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s testServer) login(t *testing.T, email, password string, wantStatus int) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v0/auth/login", gin.H{"email": email, "password": password}, "")
	if rec.Code != wantStatus {
		t.Fatalf("login status = %d, want %d: %s", rec.Code, wantStatus, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return out.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &out); errDecode != nil {
		t.Fatalf("decode response: %v: %s", errDecode, rec.Body.String())
	}
	return out
}

func TestImportUserTwiceOverHTTP(t *testing.T) {
	srv := newTestServer(t, 0)
	body := gin.H{"external_id": "u-1", "name": "Ana", "email": "ana@example.com"}

	first := decode[importer.Result](t, srv.do(t, http.MethodPost, "/v0/import/users", body, srv.token))
	if !first.Success || first.Reason != importer.ReasonImported || first.InternalID == "" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	second := decode[importer.Result](t, srv.do(t, http.MethodPost, "/v0/import/users", body, srv.token))
	if second.Success || second.Reason != importer.ReasonDuplicate {
		t.Fatalf("unexpected second result: %+v", second)
	}
}

func TestImportBatchesOverHTTP(t *testing.T) {
	srv := newTestServer(t, 0)

	users := decode[importer.BatchResult](t, srv.do(t, http.MethodPost, "/v0/import/users/batch", gin.H{
		"users": []gin.H{{"external_id": "u-1", "name": "Ana", "email": "ana@example.com"}},
	}, srv.token))
	if users.Total != 1 || users.Successful != 1 {
		t.Fatalf("unexpected user batch: %+v", users)
	}

	banks := decode[importer.BatchResult](t, srv.do(t, http.MethodPost, "/v0/import/banks/batch", gin.H{
		"banks": []gin.H{
			{"external_id": "b-1", "user_external_id": "u-1", "name": "Nubank"},
			{"external_id": "b-2", "user_external_id": "missing", "name": "Itau"},
		},
	}, srv.token))
	if banks.Total != 2 || banks.Successful != 1 || banks.Results[1].Reason != importer.ReasonMissingReference {
		t.Fatalf("unexpected bank batch: %+v", banks)
	}

	txns := decode[importer.BatchResult](t, srv.do(t, http.MethodPost, "/v0/import/transactions/batch", gin.H{
		"transactions": []gin.H{
			{"external_id": "t-1", "bank_external_id": "b-1", "amount": "-42.50", "transaction_date": "2026-02-01T10:00:00Z"},
		},
	}, srv.token))
	if txns.Total != 1 || txns.Successful != 1 {
		t.Fatalf("unexpected transaction batch: %+v", txns)
	}

	status := decode[struct {
		Statuses []importer.SyncStatus `json:"statuses"`
	}](t, srv.do(t, http.MethodGet, "/v0/import/sync-status", nil, srv.token))
	if len(status.Statuses) != 3 || status.Statuses[1].Runs != 1 || status.Statuses[1].FailedImports != 1 {
		t.Fatalf("unexpected sync status: %+v", status.Statuses)
	}
}

func TestImportRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, 0)
	if rec := srv.do(t, http.MethodGet, "/v0/import/health", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", rec.Code)
	}
	if rec := srv.do(t, http.MethodGet, "/v0/import/health", nil, "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", rec.Code)
	}
	if rec := srv.do(t, http.MethodGet, "/v0/import/health", nil, srv.token); rec.Code != http.StatusOK {
		t.Fatalf("health status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestImportedUserCannotLogin(t *testing.T) {
	srv := newTestServer(t, 0)
	srv.do(t, http.MethodPost, "/v0/import/users", gin.H{"external_id": "u-1", "name": "Ana", "email": "ana@example.com"}, srv.token)
	srv.login(t, "ana@example.com", "imported_user", http.StatusUnauthorized)
	srv.login(t, "ops@hub.local", "wrong", http.StatusUnauthorized)
}

func TestImportRoutesAreRateLimited(t *testing.T) {
	srv := newTestServer(t, 1)
	if rec := srv.do(t, http.MethodGet, "/v0/import/health", nil, srv.token); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := srv.do(t, http.MethodGet, "/v0/import/health", nil, srv.token)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestExternalIDsRoute(t *testing.T) {
	srv := newTestServer(t, 0)
	srv.do(t, http.MethodPost, "/v0/import/users", gin.H{"external_id": "u-1", "name": "Ana", "email": "ana@example.com"}, srv.token)

	if rec := srv.do(t, http.MethodGet, "/v0/import/external-ids?entity_type=account", nil, srv.token); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown type status = %d", rec.Code)
	}
	out := decode[struct {
		Module      string   `json:"module"`
		ExternalIDs []string `json:"external_ids"`
	}](t, srv.do(t, http.MethodGet, "/v0/import/external-ids?entity_type=user", nil, srv.token))
	if out.Module != "bank-hub" || len(out.ExternalIDs) != 1 || out.ExternalIDs[0] != "u-1" {
		t.Fatalf("unexpected external ids: %+v", out)
	}
}

func TestOrphanRoutes(t *testing.T) {
	srv := newTestServer(t, 0)
	result := decode[importer.Result](t, srv.do(t, http.MethodPost, "/v0/import/users", gin.H{"external_id": "u-1", "name": "Ana", "email": "ana@example.com"}, srv.token))
	if _, errDelete := srv.store.DeleteUser(context.Background(), result.InternalID); errDelete != nil {
		t.Fatalf("delete user: %v", errDelete)
	}

	orphans := decode[struct {
		Count int `json:"count"`
	}](t, srv.do(t, http.MethodGet, "/v0/admin/mappings/orphans", nil, srv.token))
	if orphans.Count != 1 {
		t.Fatalf("expected 1 orphan, got %d", orphans.Count)
	}
	for _, want := range []int64{1, 0} {
		cleanup := decode[struct {
			Deleted int64 `json:"deleted"`
		}](t, srv.do(t, http.MethodPost, "/v0/admin/mappings/cleanup", nil, srv.token))
		if cleanup.Deleted != want {
			t.Fatalf("cleanup deleted %d, want %d", cleanup.Deleted, want)
		}
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, 0)
	if rec := srv.do(t, http.MethodGet, "/healthz", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
}
