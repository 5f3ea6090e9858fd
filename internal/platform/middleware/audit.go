package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medicare/medicare/internal/platform/auth"
	"github.com/medicare/medicare/internal/platform/respond"
)

// AuditEntry records who touched which record, how, and with what result.
type AuditEntry struct {
	ActorID    string
	ActorRole  string
	RecordKind string
	RecordID   string
	Action     string // read, create, update, delete
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries somewhere other than the log.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// auditedKinds are the /api collections whose access is audited. Auth
// endpoints are left out so credentials never reach the trail.
var auditedKinds = map[string]bool{
	"appointments":     true,
	"medical-records":  true,
	"utility-requests": true,
	"users":            true,
}

// Audit logs one "record_access" event per request to an audited
// collection, after the handler ran. Mount it behind JWTMiddleware so the
// actor is known. Recorders, when given, receive the same entry.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			kind, recordID := parseRecordPath(req.URL.Path)
			if !auditedKinds[kind] {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				RecordKind: kind,
				RecordID:   recordID,
				Action:     httpMethodToAction(req.Method),
				Path:       req.URL.Path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: c.Response().Status,
			}
			// The error handler has not written the response yet.
			if err != nil {
				entry.StatusCode, _ = respond.Classify(err)
			}
			if actor, ok := auth.ActorFromContext(req.Context()); ok {
				entry.ActorID = actor.ID.String()
				entry.ActorRole = string(actor.Role)
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			evt := logger.Info()
			if entry.StatusCode == http.StatusForbidden {
				evt = logger.Warn()
			}
			evt.
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("actor_id", entry.ActorID).
				Str("actor_role", entry.ActorRole).
				Str("record_kind", entry.RecordKind).
				Str("record_id", entry.RecordID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("record_access")

			return err
		}
	}
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// parseRecordPath splits /api/<kind>[/.../<id>[/verify]] into the
// collection and the first uuid-shaped segment after it.
//
//   - /api/appointments               -> appointments, ""
//   - /api/medical-records/<id>       -> medical-records, <id>
//   - /api/users/doctors/<id>/verify  -> users, <id>
func parseRecordPath(path string) (kind, id string) {
	if !strings.HasPrefix(path, "/api/") {
		return "", ""
	}
	segments := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/"), "/"), "/")
	kind = segments[0]
	for _, s := range segments[1:] {
		if isUUIDLike(s) {
			return kind, s
		}
	}
	return kind, ""
}

func isUUIDLike(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
