package firestore

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestWrapErrorPassesThroughContextErrors(t *testing.T) {
	if got := WrapError("orders.get", context.Canceled); !errors.Is(got, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", got)
	}
	if got := WrapError("orders.get", context.DeadlineExceeded); !errors.Is(got, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", got)
	}
}

func TestWrapErrorConvertsGRPCDeadlineAndCancel(t *testing.T) {
	got := WrapError("orders.get", status.Error(codes.DeadlineExceeded, "deadline"))
	if !errors.Is(got, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", got)
	}

	got = WrapError("orders.get", status.Error(codes.Canceled, "canceled"))
	if !errors.Is(got, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", got)
	}
}

func TestWrapErrorClassifiesCodes(t *testing.T) {
	cases := []struct {
		name        string
		code        codes.Code
		notFound    bool
		conflict    bool
		unavailable bool
	}{
		{name: "not found", code: codes.NotFound, notFound: true},
		{name: "already exists", code: codes.AlreadyExists, conflict: true},
		{name: "aborted", code: codes.Aborted, conflict: true},
		{name: "unavailable", code: codes.Unavailable, unavailable: true},
		{name: "resource exhausted", code: codes.ResourceExhausted, unavailable: true},
		{name: "unknown", code: codes.Unknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := WrapError("orders.list", status.Error(tc.code, "boom"))

			var repoErr *Error
			if !errors.As(wrapped, &repoErr) {
				t.Fatalf("expected *Error, got %T", wrapped)
			}
			if got := repoErr.IsNotFound(); got != tc.notFound {
				t.Fatalf("IsNotFound = %v, want %v", got, tc.notFound)
			}
			if got := repoErr.IsConflict(); got != tc.conflict {
				t.Fatalf("IsConflict = %v, want %v", got, tc.conflict)
			}
			if got := repoErr.IsUnavailable(); got != tc.unavailable {
				t.Fatalf("IsUnavailable = %v, want %v", got, tc.unavailable)
			}
		})
	}
}

func TestWrapErrorKeepsExistingOp(t *testing.T) {
	inner := newError("", errors.New("boom"))
	wrapped := WrapError("orders.get", inner)

	var repoErr *Error
	if !errors.As(wrapped, &repoErr) {
		t.Fatalf("expected *Error, got %T", wrapped)
	}
	if repoErr.op != "orders.get" {
		t.Fatalf("op = %q, want %q", repoErr.op, "orders.get")
	}
	if repoErr.Error() != "orders.get: boom" {
		t.Fatalf("Error() = %q", repoErr.Error())
	}
}
