package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEnsureTokenIsStable(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := newSession()
	sess.ID = "sess-1"

	token, err := m.EnsureToken(sess)
	if err != nil {
		t.Fatalf("ensure token: %v", err)
	}
	if token == "" {
		t.Fatalf("empty token")
	}
	again, err := m.EnsureToken(sess)
	if err != nil {
		t.Fatalf("ensure token twice: %v", err)
	}
	if token != again {
		t.Fatalf("token changed between calls")
	}
}

func TestVerifyRequest(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := newSession()
	sess.ID = "sess-1"
	token, err := m.EnsureToken(sess)
	if err != nil {
		t.Fatalf("ensure token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/roles", nil)
	req.Header.Set(CSRFHeader, token)
	if err := m.VerifyRequest(req, sess); err != nil {
		t.Fatalf("verify: %v", err)
	}

	req.Header.Set(CSRFHeader, "forged")
	if err := m.VerifyRequest(req, sess); !errors.Is(err, ErrCSRFTokenMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}

	req.Header.Del(CSRFHeader)
	if err := m.VerifyRequest(req, sess); !errors.Is(err, ErrCSRFTokenMissing) {
		t.Fatalf("expected missing, got %v", err)
	}

	if err := m.VerifyRequest(req, nil); !errors.Is(err, ErrCSRFTokenMissing) {
		t.Fatalf("nil session: expected missing, got %v", err)
	}
}
