// Package vm drives virtual machine lifecycle operations against a libvirt
// control plane: defining domains from typed specs, starting and stopping
// them, and reporting observed state.
package vm

import (
	"context"

	"github.com/jgaskill/virtadm/internal/domain"
)

// VMState is the observed runtime state of a virtual machine. It is always
// fetched on demand from the control plane, never cached: the control plane
// is the sole source of truth and can change a VM's state out-of-band.
type VMState string

const (
	VMStateRunning      VMState = "running"
	VMStateBlocked      VMState = "blocked"
	VMStatePaused       VMState = "paused"
	VMStateShuttingDown VMState = "shutting-down"
	VMStateShutOff      VMState = "shutoff"
	VMStateCrashed      VMState = "crashed"
	VMStateUnknown      VMState = "unknown"
)

// VM is a point-in-time view of one domain. It is a plain value, not a live
// handle: the fields reflect the control plane's answer at the moment of the
// call that produced it.
type VM struct {
	Name      string  `json:"name"`
	State     VMState `json:"state"`
	MemoryMiB uint64  `json:"memory_mib"`
	VCPUs     int     `json:"vcpus"`
}

// Lifecycle defines the VM lifecycle operations. State-changing calls query
// the current state before acting; that check is inherently racy against
// external actors (another client, a guest crash, the watchdog), so a passed
// precondition here does not guarantee the operation cannot still be rejected
// by the control plane. No operation retries internally: retry policy belongs
// to the caller, because only the caller knows which of its operations are
// safe to repeat.
type Lifecycle interface {
	// DefineVM resolves the emulator and disk paths, renders the domain
	// document for spec, and submits it. Defining a name that already exists
	// redefines it: the last definition wins.
	DefineVM(ctx context.Context, spec domain.Spec) (*VM, error)

	// StartVM boots a defined VM. Fails with ErrAlreadyRunning if the
	// observed state is running.
	StartVM(ctx context.Context, name string) error

	// StopVM requests a graceful ACPI shutdown. The request is asynchronous:
	// the VM may not have reached shutoff when this returns. Callers needing
	// a confirmed stop poll QueryState until shutoff or their own timeout.
	StopVM(ctx context.Context, name string) error

	// ForceStopVM terminates the VM immediately. Calling it on a VM already
	// shut off succeeds without side effect.
	ForceStopVM(ctx context.Context, name string) error

	// UndefineVM removes the persistent definition. Fails with ErrNotShutOff
	// unless the VM is shut off.
	UndefineVM(ctx context.Context, name string) error

	// LookupVM resolves a VM by name. A missing VM is reported as
	// found=false with a nil error; only connectivity or control-plane
	// failures produce an error.
	LookupVM(ctx context.Context, name string) (v *VM, found bool, err error)

	// ListVMs returns a snapshot of every domain known to the control plane,
	// active and inactive. Order is unspecified.
	ListVMs(ctx context.Context) ([]VM, error)

	// QueryState re-fetches the current state of the named VM.
	QueryState(ctx context.Context, name string) (VMState, error)
}
