package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeInvalidArgument, "bad")
	if err.Code != ErrCodeInvalidArgument {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidArgument, err.Code)
	}
	if err.Message != "bad" {
		t.Errorf("expected message 'bad', got %q", err.Message)
	}
}

func TestAppError_MissingArgument(t *testing.T) {
	err := MissingArgument("selector")
	if err.Code != ErrCodeMissingArgument {
		t.Errorf("expected MISSING_ARGUMENT, got %s", err.Code)
	}
	if err.Details["argument"] != "selector" {
		t.Errorf("expected argument=selector, got %v", err.Details["argument"])
	}
	if !strings.Contains(err.Error(), "selector") {
		t.Errorf("expected message to name the argument, got %q", err.Error())
	}
}

func TestAppError_Is_MatchesByCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"no elements", NoElements("First"), ErrNoElements, true},
		{"more than one", MoreThanOne("Single"), ErrMoreThanOne, true},
		{"overflow", Overflow("SelectIndexed"), ErrOverflow, true},
		{"missing argument", MissingArgument("source"), ErrMissingArgument, true},
		{"different code", NoElements("First"), ErrMoreThanOne, false},
		{"wrapped", fmt.Errorf("outer: %w", Overflow("WhereIndexed")), ErrOverflow, true},
		{"plain error", stderrors.New("boom"), ErrNoElements, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := stderrors.Is(tc.err, tc.target); got != tc.want {
				t.Errorf("errors.Is = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	root := stderrors.New("disk gone")
	err := SourceFailed("bolt", root)
	if !stderrors.Is(err, root) {
		t.Error("expected cause to be reachable through errors.Is")
	}
	if err.Unwrap() != root {
		t.Error("expected Unwrap to return the cause")
	}
	if !strings.Contains(err.Error(), "cause: disk gone") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := New(ErrCodeInternal, "x").WithDetails(map[string]any{"a": 1})
	err.WithDetails(map[string]any{"b": 2})
	if err.Details["a"] != 1 || err.Details["b"] != 2 {
		t.Errorf("expected merged details, got %v", err.Details)
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{Code: ErrCodeInternal}
	err.WithDetail("k", "v")
	if err.Details["k"] != "v" {
		t.Errorf("expected k=v, got %v", err.Details)
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("wrap: %w", Decode("ndjson", stderrors.New("eof")))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if appErr.Code != ErrCodeDecode {
		t.Errorf("expected DECODE_FAILED, got %s", appErr.Code)
	}
	if CodeOf(wrapped) != ErrCodeDecode {
		t.Errorf("CodeOf = %s, want %s", CodeOf(wrapped), ErrCodeDecode)
	}
	if CodeOf(stderrors.New("plain")) != "" {
		t.Error("expected empty code for plain error")
	}
	if IsAppError(stderrors.New("plain")) {
		t.Error("plain error is not an AppError")
	}
}

func TestIsEnumerationCode_Table(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodeNoElements, true},
		{ErrCodeMoreThanOne, true},
		{ErrCodeOverflow, true},
		{ErrCodeMissingArgument, false},
		{ErrCodeSourceFailed, false},
	}
	for _, tc := range tests {
		if got := IsEnumerationCode(tc.code); got != tc.want {
			t.Errorf("IsEnumerationCode(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestRespond(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"unavailable", Unavailable("orders", "circuit open"), 503, ErrCodeUnavailable},
		{"wrapped decode", fmt.Errorf("pull: %w", Decode("orders", nil)), 502, ErrCodeDecode},
		{"missing argument", MissingArgument("key"), 400, ErrCodeMissingArgument},
		{"no elements", NoElements("Single"), 404, ErrCodeNoElements},
		{"plain error", stderrors.New("disk gone"), 500, ErrCodeInternal},
		{"unknown code", New("TEAPOT", "short and stout"), 500, "TEAPOT"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := Respond(tc.err)
			if status != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, status)
			}
			if body.Error.Code != tc.wantCode {
				t.Errorf("expected code %s, got %s", tc.wantCode, body.Error.Code)
			}
		})
	}
}
