package core

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bitswalk/kforge/src/kforge/api"
	"github.com/bitswalk/kforge/src/kforge/db"
	"github.com/bitswalk/kforge/src/kforge/storage"
	"github.com/spf13/afero"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	database, err := db.New(db.Config{PersistPath: filepath.Join(t.TempDir(), "history.db")})
	if err != nil {
		t.Fatalf("db.New() error: %v", err)
	}
	t.Cleanup(func() { _ = database.Shutdown() })

	backend := storage.NewLocalFs(afero.NewMemMapFs(), "/srv/kforge")
	srv := NewServer(database, backend)
	t.Cleanup(srv.api.Close)
	return srv
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp api.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" || resp.Checks["database"] != "ok" || resp.Checks["storage"] != "ok" {
		t.Errorf("health = %+v", resp)
	}
}

func TestServer_CreatePlanSavedAndExported(t *testing.T) {
	srv := newTestServer(t)

	body := `{"version":"6.12","toolchain":"gcc","desktop":true,"jobs":2,"save":true,"export":true}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/plans", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp api.PlanResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID == "" || resp.Export == nil || len(resp.Export.Artifacts) != 3 {
		t.Errorf("plan response = %+v", resp)
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/plans/"+resp.ID, nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET saved plan status = %d", w.Code)
	}
}
