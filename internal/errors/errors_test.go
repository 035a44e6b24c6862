package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodedError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *CodedError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CodeNodeNotFound, "Node not found with ID: 1:2"),
			expected: "document.not_found: Node not found with ID: 1:2",
		},
		{
			name:     "error with cause",
			err:      Wrap(CodeStoreFailed, "export failed", errors.New("timeout")),
			expected: "document.store_failed: export failed (timeout)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCodedError_Unwrap(t *testing.T) {
	cause := errors.New("original error")
	err := Wrap(CodeInternal, "wrapped", cause)

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the original cause")
	}

	err2 := New(CodeNodeNotFound, "not found")
	if err2.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"CodedError", New(CodeReadOnly, "ro"), CodeReadOnly},
		{"wrapped in fmt", fmt.Errorf("outer: %w", New(CodeOutsideScope, "x")), CodeOutsideScope},
		{"plain error", errors.New("some error"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetMessage(t *testing.T) {
	if got := GetMessage(nil); got != "" {
		t.Errorf("GetMessage(nil) = %q, want empty", got)
	}
	if got := GetMessage(MissingParam("nodeId")); got != "Missing nodeId parameter" {
		t.Errorf("GetMessage() = %q, want %q", got, "Missing nodeId parameter")
	}
	if got := GetMessage(errors.New("boom")); got != "boom" {
		t.Errorf("GetMessage() = %q, want %q", got, "boom")
	}
}

func TestToCodeAndMessage(t *testing.T) {
	code, msg := ToCodeAndMessage(ReadOnly())
	if code != CodeReadOnly {
		t.Errorf("code = %q, want %q", code, CodeReadOnly)
	}
	if msg != MsgReadOnlyMode {
		t.Errorf("message = %q, want read-only text", msg)
	}

	code, msg = ToCodeAndMessage(errors.New("plain"))
	if code != CodeUnknown || msg != "plain" {
		t.Errorf("ToCodeAndMessage(plain) = (%q, %q)", code, msg)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{MissingParam("radius"), KindValidation},
		{Invalid("bad"), KindValidation},
		{UnknownCommand("nope"), KindValidation},
		{NodeNotFound("1:1"), KindNotFound},
		{Unsupported("Node does not support resizing: %s", "1:1"), KindCapabilityMismatch},
		{ReadOnly(), KindAccessDenied},
		{OutsideScope(MsgOutsideScope), KindAccessDenied},
		{NameMismatch(MsgNameMismatch), KindAccessDenied},
		{RootInstanceDisallowed(), KindAccessDenied},
		{StoreFailed("Error exporting node as image", errors.New("x")), KindExternalStore},
		{errors.New("plain"), KindUnknown},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestStoreFailedMessage(t *testing.T) {
	err := StoreFailed("Error getting nodes info", NodeNotFound("9:9"))
	want := "Error getting nodes info: Node not found with ID: 9:9"
	if got := GetMessage(err); got != want {
		t.Errorf("GetMessage() = %q, want %q", got, want)
	}
	if !errors.Is(err, err.Cause) {
		t.Error("StoreFailed should keep the cause for errors.Is")
	}
}

func TestUnknownCommandMessage(t *testing.T) {
	if got := GetMessage(UnknownCommand("fly")); got != "Unknown command: fly" {
		t.Errorf("GetMessage() = %q", got)
	}
}
