package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medicare/medicare/internal/platform/apperr"
	"github.com/medicare/medicare/internal/platform/auth"
)

type mockRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
}

func (m *mockRecorder) RecordAccess(entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockRecorder) last() AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func newAuditContext(method, path string, actor *auth.Actor) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestAudit_RecordRead(t *testing.T) {
	rec := &mockRecorder{}
	actor := auth.Actor{ID: uuid.New(), Role: auth.RoleDoctor}
	recordID := uuid.New().String()

	c, _ := newAuditContext(http.MethodGet, "/api/medical-records/"+recordID, &actor)
	c.Set("request_id", "req-abc")

	if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", rec.count())
	}
	entry := rec.last()
	if entry.ActorID != actor.ID.String() || entry.ActorRole != "doctor" {
		t.Errorf("unexpected actor %q/%q", entry.ActorID, entry.ActorRole)
	}
	if entry.RecordKind != "medical-records" || entry.RecordID != recordID {
		t.Errorf("unexpected record %q/%q", entry.RecordKind, entry.RecordID)
	}
	if entry.Action != "read" || entry.RequestID != "req-abc" || entry.StatusCode != http.StatusOK {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestAudit_ErrorStatusFromHandlerError(t *testing.T) {
	rec := &mockRecorder{}
	actor := auth.Actor{ID: uuid.New(), Role: auth.RolePatient}
	c, _ := newAuditContext(http.MethodDelete, "/api/appointments/"+uuid.NewString(), &actor)

	denied := func(c echo.Context) error { return apperr.Forbidden("Only admins can delete appointments") }
	err := Audit(zerolog.Nop(), rec)(denied)(c)

	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected the handler error to pass through, got %v", err)
	}
	entry := rec.last()
	if entry.Action != "delete" || entry.StatusCode != http.StatusForbidden {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestAudit_SkipsUnauditedPaths(t *testing.T) {
	rec := &mockRecorder{}
	for _, path := range []string{"/health", "/api/auth/login", "/api/auth/me"} {
		c, _ := newAuditContext(http.MethodPost, path, nil)
		if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if rec.count() != 0 {
		t.Errorf("expected no audit entries, got %d", rec.count())
	}
}

func TestAudit_RecorderErrorDoesNotBreakRequest(t *testing.T) {
	var buf bytes.Buffer
	rec := &mockRecorder{err: errors.New("disk full")}
	c, _ := newAuditContext(http.MethodPost, "/api/utility-requests", nil)

	if err := Audit(zerolog.New(&buf), rec)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "failed to record audit entry") || !strings.Contains(out, `"record_kind":"utility-requests"`) {
		t.Errorf("unexpected log output %s", out)
	}
}

func TestParseRecordPath(t *testing.T) {
	id := uuid.NewString()
	tests := []struct {
		path     string
		wantKind string
		wantID   string
	}{
		{"/api/appointments", "appointments", ""},
		{"/api/appointments/" + id, "appointments", id},
		{"/api/users/doctors/" + id + "/verify", "users", id},
		{"/api/users/doctors/verified", "users", ""},
		{"/api/medical-records/not-a-uuid", "medical-records", ""},
		{"/health", "", ""},
	}
	for _, tt := range tests {
		kind, gotID := parseRecordPath(tt.path)
		if kind != tt.wantKind || gotID != tt.wantID {
			t.Errorf("parseRecordPath(%q) = %q, %q; want %q, %q", tt.path, kind, gotID, tt.wantKind, tt.wantID)
		}
	}
}

func TestHttpMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:    "read",
		http.MethodHead:   "read",
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range tests {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("httpMethodToAction(%s) = %q, want %q", method, got, want)
		}
	}
}

func TestAuditRecorderFunc(t *testing.T) {
	var got AuditEntry
	fn := AuditRecorderFunc(func(e AuditEntry) error {
		got = e
		return nil
	})
	if err := fn.RecordAccess(AuditEntry{RecordKind: "users"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RecordKind != "users" {
		t.Errorf("expected entry to be forwarded, got %+v", got)
	}
}
