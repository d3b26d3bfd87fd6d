package audithttp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/minutier-app/minutier/internal/audit"
	audithttp "github.com/minutier-app/minutier/internal/audit/http"
	"github.com/minutier-app/minutier/internal/rbac"
	"github.com/minutier-app/minutier/internal/shared"
	_ "github.com/minutier-app/minutier/testing"
)

func newAuditRouter(t *testing.T, trail *audit.Log) chi.Router {
	t.Helper()
	store := rbac.NewStore()
	if _, err := store.Assign("root", rbac.RoleSuperAdmin); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := store.Assign("v", rbac.RoleViewer); err != nil {
		t.Fatalf("assign: %v", err)
	}
	guard := rbac.Middleware{Service: rbac.NewService(store, nil, nil)}
	handler := audithttp.NewHandler(nil, trail, guard)

	r := chi.NewRouter()
	r.Route("/admin/audit", handler.MountRoutes)
	return r
}

func auditRequest(userID, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != "" {
		sess := &shared.Session{}
		sess.SetUser(userID)
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	return req
}

func seededTrail(t *testing.T) *audit.Log {
	t.Helper()
	trail := audit.NewLog()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	seed := []audit.Entry{
		{ActorID: "u1", ActorName: "Marie", Action: audit.ActionCreate, Module: "admin", Timestamp: base},
		{ActorID: "u2", ActorName: "Paul", Action: audit.ActionAssignRole, Module: "admin", Timestamp: base.Add(time.Hour)},
		{ActorID: "u1", ActorName: "Marie", Action: audit.ActionDelete, Module: "admin", Timestamp: base.Add(2 * time.Hour)},
	}
	for _, e := range seed {
		if err := trail.Append(context.Background(), e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return trail
}

func TestQueryTrail(t *testing.T) {
	router := newAuditRouter(t, seededTrail(t))

	res := httptest.NewRecorder()
	router.ServeHTTP(res, auditRequest("root", "/admin/audit/?actor=u1"))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var result audit.Result
	if err := json.Unmarshal(res.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries for u1, got %d", len(result.Entries))
	}
	if result.Entries[0].Action != audit.ActionDelete {
		t.Fatalf("expected newest entry first, got %s", result.Entries[0].Action)
	}
}

func TestQueryTrailTimeRange(t *testing.T) {
	router := newAuditRouter(t, seededTrail(t))

	res := httptest.NewRecorder()
	target := "/admin/audit/?from=2026-04-01T09:30:00Z&to=2026-04-01T10:30:00Z"
	router.ServeHTTP(res, auditRequest("root", target))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var result audit.Result
	if err := json.Unmarshal(res.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].Action != audit.ActionAssignRole {
		t.Fatalf("expected the 10:00 entry only, got %d entries", len(result.Entries))
	}
}

func TestQueryTrailRequiresAdminRead(t *testing.T) {
	router := newAuditRouter(t, seededTrail(t))

	res := httptest.NewRecorder()
	router.ServeHTTP(res, auditRequest("v", "/admin/audit/"))
	if res.Code != http.StatusForbidden {
		t.Fatalf("viewer: expected 403, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	router.ServeHTTP(res, auditRequest("", "/admin/audit/"))
	if res.Code != http.StatusForbidden {
		t.Fatalf("anonymous: expected 403, got %d", res.Code)
	}
}

func TestExportCSV(t *testing.T) {
	router := newAuditRouter(t, seededTrail(t))

	res := httptest.NewRecorder()
	router.ServeHTTP(res, auditRequest("root", "/admin/audit/export"))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type: %s", ct)
	}
	if cd := res.Header().Get("Content-Disposition"); cd != `attachment; filename="audit-trail.csv"` {
		t.Fatalf("content disposition: %s", cd)
	}
	if body := res.Body.String(); body == "" {
		t.Fatalf("expected CSV body")
	}
}
