package vm

import (
	"errors"
	"fmt"
)

// Sentinel errors for lifecycle operations. They are always wrapped with
// operation context, so callers must test with errors.Is rather than
// comparing directly.
var (
	// ErrNotConnected is returned when an operation is attempted before
	// Connect has succeeded, or after the connection was lost or closed.
	ErrNotConnected = errors.New("not connected to hypervisor")

	// ErrNotFound is returned when the control plane has no domain with the
	// requested name. LookupVM treats this as an expected outcome rather
	// than an error.
	ErrNotFound = errors.New("vm not found")

	// ErrAlreadyRunning is returned by StartVM when the observed state is
	// already running.
	ErrAlreadyRunning = errors.New("vm already running")

	// ErrNotShutOff is returned by UndefineVM when the VM must be shut off
	// first.
	ErrNotShutOff = errors.New("vm not shut off")

	// ErrConnectionLost is returned when the session to the control plane
	// fails mid-operation. The manager marks itself disconnected; callers
	// must Connect again explicitly before further operations.
	ErrConnectionLost = errors.New("hypervisor connection lost")
)

// ConnectError reports a failure to establish a control-plane session:
// malformed endpoint, daemon not running, or permission denied. No handle is
// retained when Connect fails.
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %q: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// DefineError reports a failure to define a VM. The wrapped error is one of
// domain.ErrInvalidSpec, emulator.ErrNotFound, ErrNotConnected, or a
// control-plane rejection.
type DefineError struct {
	Name string
	Err  error
}

func (e *DefineError) Error() string {
	return fmt.Sprintf("define vm %q: %v", e.Name, e.Err)
}

func (e *DefineError) Unwrap() error { return e.Err }
