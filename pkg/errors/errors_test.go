package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}

	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}

	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestCopiesStillMatchCatalogue(t *testing.T) {
	err := ErrStoreUnavailable.WithInternal(stdErrors.New("dial tcp: refused"))
	if !stdErrors.Is(err, ErrStoreUnavailable) {
		t.Fatal("expected copy to match ErrStoreUnavailable")
	}
	if stdErrors.Is(err, ErrInvalidPayload) {
		t.Fatal("did not expect copy to match ErrInvalidPayload")
	}

	msg := NewInvalidPayload("site_config must not be empty")
	if !stdErrors.Is(msg, ErrInvalidPayload) {
		t.Fatal("expected message copy to match ErrInvalidPayload")
	}
	if ErrInvalidPayload.Message != "Invalid request payload" {
		t.Fatalf("catalogue entry mutated: %q", ErrInvalidPayload.Message)
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("invalid payload")
	if err.Code != ErrBadRequest.Code {
		t.Fatalf("expected %s, got %s", ErrBadRequest.Code, err.Code)
	}
	if err.Message != "invalid payload" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
	if err.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
}
