package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minutier-app/minutier/internal/shared"
)

type decisionCounter struct {
	allowed int
	denied  int
}

func (d *decisionCounter) ObserveDecision(module string, allowed bool) {
	if allowed {
		d.allowed++
	} else {
		d.denied++
	}
}

func requestAs(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin/roles", nil)
	if userID == "" {
		return req
	}
	sess := &shared.Session{}
	sess.SetUser(userID)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestMiddlewareRequire(t *testing.T) {
	store := NewStore()
	svc := NewService(store, nil, nil)
	counter := &decisionCounter{}
	mw := Middleware{Service: svc, Metrics: counter}

	if _, err := store.Assign("admin", RoleSuperAdmin); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := store.Assign("viewer", RoleViewer); err != nil {
		t.Fatalf("assign: %v", err)
	}

	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	guard := mw.Require(ModuleAdmin, PermRead)(next)

	res := httptest.NewRecorder()
	guard.ServeHTTP(res, requestAs("admin"))
	if res.Code != http.StatusOK || !reached {
		t.Fatalf("super admin: expected 200, got %d", res.Code)
	}

	reached = false
	res = httptest.NewRecorder()
	guard.ServeHTTP(res, requestAs("viewer"))
	if res.Code != http.StatusForbidden || reached {
		t.Fatalf("viewer: expected 403, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	guard.ServeHTTP(res, requestAs(""))
	if res.Code != http.StatusForbidden {
		t.Fatalf("anonymous: expected 403, got %d", res.Code)
	}

	if counter.allowed != 1 || counter.denied != 2 {
		t.Fatalf("decision metrics: allowed=%d denied=%d", counter.allowed, counter.denied)
	}
}

func TestMiddlewareRequireAny(t *testing.T) {
	store := NewStore()
	svc := NewService(store, nil, nil)
	mw := Middleware{Service: svc}

	if _, err := store.Assign("cpt", RoleComptable); err != nil {
		t.Fatalf("assign: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guard := mw.RequireAny(ModuleComptabilite, PermSign, PermRead)(next)

	res := httptest.NewRecorder()
	guard.ServeHTTP(res, requestAs("cpt"))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 when one permission matches, got %d", res.Code)
	}

	strict := mw.Require(ModuleComptabilite, PermSign, PermRead)(next)
	res = httptest.NewRecorder()
	strict.ServeHTTP(res, requestAs("cpt"))
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when one permission is missing, got %d", res.Code)
	}
}

func TestMiddlewareEmptyPermissionListRequiresUser(t *testing.T) {
	store := NewStore()
	svc := NewService(store, nil, nil)
	mw := Middleware{Service: svc}

	if _, err := store.Assign("viewer", RoleViewer); err != nil {
		t.Fatalf("assign: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guard := mw.Require(ModuleDashboard)(next)

	res := httptest.NewRecorder()
	guard.ServeHTTP(res, requestAs(""))
	if res.Code != http.StatusForbidden {
		t.Fatalf("anonymous: expected 403, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	guard.ServeHTTP(res, requestAs("viewer"))
	if res.Code != http.StatusOK {
		t.Fatalf("signed-in user: expected 200, got %d", res.Code)
	}
}
