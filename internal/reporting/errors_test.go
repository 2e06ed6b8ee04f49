package reporting

import (
	"errors"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/exprlang/exprlang/internal/token"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	_ = v
}

func TestParseErrorFormatPlain(t *testing.T) {
	err := NewParseError(token.Position{Offset: 6, Line: 1, Column: 7}, "1 + @", "unexpected character '@'")
	snaps.MatchSnapshot(t, "parse_error_plain", err.Format(false))
}

func TestInvocationErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("division by zero")
	err := &InvocationError{Cause: cause}
	if err.Error() != "division by zero" {
		t.Fatalf("Error() = %q, want %q", err.Error(), "division by zero")
	}
	if errors.Unwrap(err) != cause {
		t.Fatalf("Unwrap did not return the original cause")
	}
}

func TestDynamicBindingErrorMessage(t *testing.T) {
	err := NewDynamicBindingError("BAR", nil)
	if err.Error() != `dynamic member "BAR" not found` {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("parameter count mismatch: declared %d, got %d", 2, 3)
	if err.Error() != "parameter count mismatch: declared 2, got 3" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
