package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		code       string
		httpStatus int
	}{
		{"validation", NewValidationError("bad input", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{"not found", NewNotFound("ticket", nil), "NOT_FOUND", http.StatusNotFound},
		{"unauthorized", NewUnauthorized("no token"), "UNAUTHORIZED", http.StatusUnauthorized},
		{"forbidden", NewForbidden("wrong org"), "FORBIDDEN", http.StatusForbidden},
		{"invalid transition", NewInvalidTransition("closed is terminal", nil), "INVALID_TRANSITION", http.StatusConflict},
		{"submissions disabled", NewSubmissionsDisabled("opted out"), "SUBMISSIONS_DISABLED", http.StatusForbidden},
		{"duplicate slug", NewDuplicateSlug("springfield"), "DUPLICATE_SLUG", http.StatusConflict},
		{"conflict", NewConflict("lost the race", nil), "CONFLICT", http.StatusConflict},
		{"internal", NewInternalError(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var domainErr *DomainError
			if !errors.As(tt.err, &domainErr) {
				t.Fatalf("not a DomainError: %v", tt.err)
			}
			if domainErr.Code != tt.code {
				t.Errorf("code = %q, want %q", domainErr.Code, tt.code)
			}
			if domainErr.HTTPStatus != tt.httpStatus {
				t.Errorf("status = %d, want %d", domainErr.HTTPStatus, tt.httpStatus)
			}
			if !IsCode(tt.err, tt.code) {
				t.Errorf("IsCode(%q) = false", tt.code)
			}
		})
	}
}

func TestToDomainError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if got := ToDomainError(nil); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("passthrough", func(t *testing.T) {
		orig := NewForbidden("nope")
		if got := ToDomainError(orig); got != orig.(*DomainError) {
			t.Errorf("domain errors must pass through unchanged")
		}
	})

	t.Run("wrapped passthrough", func(t *testing.T) {
		wrapped := fmt.Errorf("loading ticket: %w", NewConflict("lost the race", nil))
		if got := ToDomainError(wrapped); got.Code != "CONFLICT" {
			t.Errorf("wrapped domain error lost its code: %v", got)
		}
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		got := ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
		if got.Code != "NOT_FOUND" || got.HTTPStatus != http.StatusNotFound {
			t.Errorf("expected NOT_FOUND, got %+v", got)
		}
	})

	t.Run("unknown becomes internal", func(t *testing.T) {
		got := ToDomainError(errors.New("disk on fire"))
		if got.Code != "INTERNAL_ERROR" {
			t.Errorf("expected INTERNAL_ERROR, got %+v", got)
		}
		if !errors.Is(got, got.Err) || got.Err == nil {
			t.Errorf("cause not retained: %+v", got)
		}
	})
}

func TestAsPublicError(t *testing.T) {
	// Authorization and existence failures are indistinguishable on
	// public surfaces.
	for _, err := range []error{
		NewForbidden("wrong org"),
		NewUnauthorized("no token"),
		NewNotFound("organization", nil),
	} {
		public := AsPublicError(err, "organization")
		if !IsCode(public, "NOT_FOUND") {
			t.Errorf("%v: expected NOT_FOUND, got %v", err, public)
		}
		var domainErr *DomainError
		if errors.As(public, &domainErr) && len(domainErr.Details) > 0 {
			t.Errorf("public error carries details: %+v", domainErr.Details)
		}
	}

	// Everything else keeps its shape.
	if got := AsPublicError(NewSubmissionsDisabled("opted out"), "organization"); !IsCode(got, "SUBMISSIONS_DISABLED") {
		t.Errorf("SUBMISSIONS_DISABLED must survive: %v", got)
	}
	if got := AsPublicError(NewValidationError("bad input", nil), "ticket"); !IsCode(got, "VALIDATION_FAILED") {
		t.Errorf("VALIDATION_FAILED must survive: %v", got)
	}
	if got := AsPublicError(nil, "ticket"); got != nil {
		t.Errorf("nil must stay nil, got %v", got)
	}
}
