package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bitswalk/kforge/src/common/errors"
)

func TestError_New(t *testing.T) {
	err := errors.New(errors.DomainToolchain, "test_code", http.StatusServiceUnavailable, "test message")

	if err.Domain != errors.DomainToolchain {
		t.Fatalf("expected domain %s, got %s", errors.DomainToolchain, err.Domain)
	}
	if err.Code != "test_code" {
		t.Fatalf("expected code test_code, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, err.HTTPStatus)
	}
}

func TestError_Wrap(t *testing.T) {
	cause := stderrors.New("underlying error")
	err := errors.Wrap(cause, errors.DomainDatabase, "query_failed", http.StatusInternalServerError, "query failed")

	if err.Unwrap() != cause {
		t.Fatal("expected wrapped error to be returned by Unwrap")
	}

	if got := err.Error(); got != "database.query_failed: query failed: underlying error" {
		t.Fatalf("unexpected error string: %s", got)
	}
}

func TestError_WithCauseLeavesSentinelUntouched(t *testing.T) {
	cause := stderrors.New("exec: clang not found")
	wrapped := errors.ErrToolchainProbe.WithCause(cause)

	if errors.ErrToolchainProbe.Unwrap() != nil {
		t.Fatal("sentinel error should not gain a cause")
	}
	if wrapped.Unwrap() != cause {
		t.Fatal("wrapped error should have cause")
	}
	if !stderrors.Is(wrapped, cause) {
		t.Fatal("errors.Is should reach the cause")
	}
}

func TestError_WithMessagef(t *testing.T) {
	custom := errors.ErrUnknownBloatCategory.WithMessagef("Unknown bloat-removal categories: %s", "foo, bar")

	if custom.Message != "Unknown bloat-removal categories: foo, bar" {
		t.Fatalf("unexpected message %q", custom.Message)
	}
	if errors.ErrUnknownBloatCategory.Message == custom.Message {
		t.Fatal("original message should not be changed")
	}
}

func TestError_Is(t *testing.T) {
	wrapped := fmt.Errorf("planning failed: %w", errors.ErrToolchainNotFound.WithMessage("nothing on PATH"))

	if !errors.Is(wrapped, errors.ErrToolchainNotFound) {
		t.Fatal("wrapped error should match sentinel by domain and code")
	}
	if errors.Is(errors.ErrToolchainNotFound, errors.ErrPlanNotFound) {
		t.Fatal("same code in different domains should not match")
	}
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"plan not found", errors.ErrPlanNotFound, http.StatusNotFound},
		{"plan invalid", errors.ErrPlanInvalid, http.StatusUnprocessableEntity},
		{"toolchain missing", errors.ErrToolchainNotFound, http.StatusServiceUnavailable},
		{"bad category", errors.ErrUnknownBloatCategory, http.StatusBadRequest},
		{"wrapped", fmt.Errorf("x: %w", errors.ErrInvalidParallelism), http.StatusBadRequest},
		{"standard error", stderrors.New("standard"), http.StatusInternalServerError},
		{"nil error", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status := errors.GetHTTPStatus(tt.err); status != tt.expected {
				t.Fatalf("expected status %d, got %d", tt.expected, status)
			}
		})
	}
}

func TestGetCodeAndDomain(t *testing.T) {
	if code := errors.GetCode(errors.ErrPlanNotFound); code != errors.CodeNotFound {
		t.Fatalf("expected code %s, got %s", errors.CodeNotFound, code)
	}
	if domain := errors.GetDomain(errors.ErrPlanNotFound); domain != errors.DomainPlan {
		t.Fatalf("expected domain %s, got %s", errors.DomainPlan, domain)
	}
	if code := errors.GetCode(stderrors.New("standard")); code != "" {
		t.Fatalf("expected empty code for standard error, got %s", code)
	}
}

func TestKey(t *testing.T) {
	if got := errors.Key(errors.ErrInvalidParallelism); got != "plan.invalid_parallelism" {
		t.Errorf("Key() = %q, want %q", got, "plan.invalid_parallelism")
	}
	if got := errors.Key(stderrors.New("boom")); got != "internal.internal_error" {
		t.Errorf("Key() = %q, want %q", got, "internal.internal_error")
	}
}

func TestNewResponse(t *testing.T) {
	resp := errors.NewResponse(fmt.Errorf("wrap: %w", errors.ErrVersionNotFound))
	if resp.Error != "catalog.not_found" {
		t.Errorf("Error = %q, want %q", resp.Error, "catalog.not_found")
	}

	resp = errors.NewResponse(stderrors.New("raw"))
	if resp.Error != "internal.internal_error" || resp.Message != "Internal server error" {
		t.Errorf("unexpected response for plain error: %+v", resp)
	}

	detailed := errors.ErrPlanInvalid.ToResponseWithDetails(map[string]any{"count": 2})
	if detailed.Details["count"] != 2 {
		t.Errorf("expected details to be carried, got %+v", detailed.Details)
	}
}
