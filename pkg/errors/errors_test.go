package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("Missing frames", "frame range is empty")
	if got := err.Error(); got != "validation error: Missing frames: frame range is empty" {
		t.Fatalf("unexpected message: %q", got)
	}
	if !err.Blocking {
		t.Fatal("expected blocking error")
	}
}

func TestWarningIsNonBlocking(t *testing.T) {
	err := NewWarning("Odd naming", "name does not match convention")
	if err.Blocking {
		t.Fatal("expected non-blocking error")
	}
}

func TestValidationErrorAs(t *testing.T) {
	wrapped := fmt.Errorf("process: %w", NewValidationError("t", "d"))
	var verr *ValidationError
	if !errors.As(wrapped, &verr) {
		t.Fatal("expected errors.As to find ValidationError")
	}
	if verr.Title != "t" {
		t.Fatalf("unexpected title: %q", verr.Title)
	}
}

func TestKnownErrorMessageIsVerbatim(t *testing.T) {
	cause := errors.New("disk full")
	err := NewKnownError("Render disk is full", cause)
	if err.Error() != "Render disk is full" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to unwrap")
	}
}

func TestOperationFailedError(t *testing.T) {
	err := NewOperationFailedError("autocreation", []ItemFailure{
		{Identifier: "render", Message: "scene not saved", Err: errors.New("unsaved")},
		{Identifier: "audio", Message: "no track"},
	})

	var opErr *OperationFailedError
	if !errors.As(err, &opErr) {
		t.Fatal("expected OperationFailedError")
	}
	info := opErr.FailedInfo()
	if len(info) != 2 {
		t.Fatalf("expected 2 failure items, got %d", len(info))
	}
	if info[0]["identifier"] != "render" {
		t.Fatalf("unexpected first failure: %v", info[0])
	}
	if _, ok := info[1]["error"]; ok {
		t.Fatal("second failure should not carry an error field")
	}
}
