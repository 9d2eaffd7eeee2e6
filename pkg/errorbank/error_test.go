package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestAppError_StatusAndGRPCCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		grpc   codes.Code
	}{
		{"bad request", BadRequest("x"), http.StatusBadRequest, codes.InvalidArgument},
		{"conflict", Conflict("x"), http.StatusConflict, codes.AlreadyExists},
		{"not found", NotFound("x"), http.StatusNotFound, codes.NotFound},
		{"unprocessable", Unprocessable("x"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{"internal", Internal("x"), http.StatusInternalServerError, codes.Internal},
		{"nil", nil, http.StatusInternalServerError, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.StatusCode(); got != tt.status {
				t.Errorf("StatusCode() = %d, want %d", got, tt.status)
			}
			if got := tt.err.GRPCCode(); got != tt.grpc {
				t.Errorf("GRPCCode() = %v, want %v", got, tt.grpc)
			}
		})
	}
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	sentinel := Conflict("quota exceeded", WithCode("quota_exceeded"))
	other := Conflict("already packaged", WithCode("already_packaged"))

	err := Conflict("scan of A1 exceeds plan 3", WithCode("quota_exceeded"), WithDetail("code", "A1"))
	wrapped := fmt.Errorf("record scan: %w", err)

	if !errors.Is(wrapped, sentinel) {
		t.Fatal("expected wrapped error to match sentinel by code")
	}
	if errors.Is(wrapped, other) {
		t.Fatal("expected no match for a different code")
	}
	if errors.Is(BadRequest("no code"), BadRequest("no code")) {
		t.Fatal("uncoded errors must only match themselves")
	}
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NotFound("missing", WithCode("unknown_unit")))
	if got := CodeOf(err); got != "unknown_unit" {
		t.Errorf("CodeOf() = %q, want %q", got, "unknown_unit")
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
}

func TestFrom_WrapsUnknownErrors(t *testing.T) {
	cause := errors.New("boom")
	appErr := From(cause)
	if appErr.Kind() != KindInternal {
		t.Errorf("Kind() = %q, want %q", appErr.Kind(), KindInternal)
	}
	if !errors.Is(appErr, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
	if From(nil) != nil {
		t.Error("From(nil) should be nil")
	}
}

func TestWithDetails_Merges(t *testing.T) {
	err := Unprocessable("locked",
		WithDetail("stage", "drilling"),
		WithDetails(map[string]any{"blocking_stage": "edge_banding"}),
	)
	if err.Details()["stage"] != "drilling" || err.Details()["blocking_stage"] != "edge_banding" {
		t.Errorf("Details() = %v", err.Details())
	}
}
