package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindForbidden, http.StatusForbidden},
		{KindInvalidReference, http.StatusBadRequest},
		{KindInvalidState, http.StatusBadRequest},
		{KindValidation, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindInternal, http.StatusInternalServerError},
		{Kind("bogus"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.kind); got != tt.want {
			t.Errorf("StatusFor(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("load appointment: %w", NotFound("No appointment found with id %s", "abc"))
	if got := KindOf(err); got != KindNotFound {
		t.Errorf("expected not_found, got %s", got)
	}
	if !IsKind(err, KindNotFound) {
		t.Error("expected IsKind to see through wrapping")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("unclassified errors should be internal")
	}
}

func TestErrorsIs_MatchesKind(t *testing.T) {
	err := Forbidden("Only admins can delete appointments")
	if !errors.Is(err, &Error{Kind: KindForbidden}) {
		t.Error("expected errors.Is to match on kind")
	}
	if errors.Is(err, &Error{Kind: KindNotFound}) {
		t.Error("expected errors.Is not to match a different kind")
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause, "failed to load user")
	if err.Message != "failed to load user" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via Unwrap")
	}
}
