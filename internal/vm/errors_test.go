package vm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func Test_ConnectError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ConnectError{Endpoint: "qemu:///system", Err: cause}

	msg := err.Error()
	if !strings.Contains(msg, "qemu:///system") {
		t.Errorf("Error() = %q, want the endpoint in the message", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("Error() = %q, want the cause in the message", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true via Unwrap")
	}
}

func Test_DefineError_MessageAndUnwrap(t *testing.T) {
	err := &DefineError{Name: "web", Err: ErrNotConnected}

	msg := err.Error()
	if !strings.Contains(msg, "web") {
		t.Errorf("Error() = %q, want the VM name in the message", msg)
	}
	if !errors.Is(err, ErrNotConnected) {
		t.Error("errors.Is(err, ErrNotConnected) = false, want true via Unwrap")
	}
}

func Test_DefineError_MatchesThroughWrapping(t *testing.T) {
	inner := &DefineError{Name: "web", Err: ErrNotConnected}
	wrapped := fmt.Errorf("tool vm_define: %w", inner)

	var defErr *DefineError
	if !errors.As(wrapped, &defErr) {
		t.Fatal("errors.As failed to find *DefineError through wrapping")
	}
	if defErr.Name != "web" {
		t.Errorf("Name = %q, want %q", defErr.Name, "web")
	}
	if !errors.Is(wrapped, ErrNotConnected) {
		t.Error("errors.Is lost the sentinel through double wrapping")
	}
}

func Test_Sentinels_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotConnected,
		ErrNotFound,
		ErrAlreadyRunning,
		ErrNotShutOff,
		ErrConnectionLost,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v matches %v, want distinct identities", a, b)
			}
		}
	}
}
