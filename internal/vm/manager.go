package vm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jgaskill/virtadm/internal/domain"
	"github.com/jgaskill/virtadm/internal/emulator"
)

// systemSocket is the libvirt daemon socket for the system instance.
const systemSocket = "/var/run/libvirt/libvirt-sock"

// Manager owns at most one control-plane session and drives lifecycle
// operations through it. It is not safe for concurrent use: the underlying
// protocol is a blocking request-response stream, so callers needing
// concurrency hold one Manager per worker or serialize access externally.
type Manager struct {
	backend  domain.Backend
	locator  emulator.Locator
	imageDir string

	// plane is nil until Connect succeeds and is reset to nil on Close or
	// when the session is lost.
	plane controlPlane
}

// NewManager returns a disconnected Manager. backend fixes the hypervisor
// type declared in every definition this manager produces; imageDir is the
// directory disk image paths are derived from.
func NewManager(backend domain.Backend, locator emulator.Locator, imageDir string) *Manager {
	return &Manager{
		backend:  backend,
		locator:  locator,
		imageDir: imageDir,
	}
}

// Connect opens a session to the control plane at endpoint. Accepted forms
// are a bare socket path, "unix:///path/to/sock", "qemu:///system", and
// "qemu:///session". An existing session is released first, so repeated
// connects never leak a handle; a failed connect leaves the manager
// disconnected with no retained state.
func (m *Manager) Connect(endpoint string) error {
	if m.plane != nil {
		// Release the prior handle before replacing it.
		_ = m.plane.Close()
		m.plane = nil
	}

	socket, err := endpointSocket(endpoint)
	if err != nil {
		return &ConnectError{Endpoint: endpoint, Err: err}
	}

	plane, err := dialPlane(socket)
	if err != nil {
		return &ConnectError{Endpoint: endpoint, Err: err}
	}

	m.plane = plane
	return nil
}

// Close releases the control-plane session. It is idempotent: closing a
// disconnected manager is a no-op. Any VM values obtained earlier remain
// valid as data but no longer correspond to a live session.
func (m *Manager) Close() error {
	if m.plane == nil {
		return nil
	}
	err := m.plane.Close()
	m.plane = nil
	return err
}

// Connected reports whether the manager currently holds a session.
func (m *Manager) Connected() bool { return m.plane != nil }

// DefineVM validates spec, resolves the emulator binary and the disk image
// path, renders the domain document, and submits it to the control plane.
// Nothing is submitted unless every required field resolved first. Defining
// an existing name redefines it.
func (m *Manager) DefineVM(ctx context.Context, spec domain.Spec) (*VM, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DefineError{Name: spec.Name, Err: err}
	}
	if m.plane == nil {
		return nil, &DefineError{Name: spec.Name, Err: ErrNotConnected}
	}

	if spec.Backend == "" {
		spec.Backend = m.backend
	}

	emulatorPath, err := m.locator.Find()
	if err != nil {
		return nil, &DefineError{Name: spec.Name, Err: err}
	}
	diskPath := filepath.Join(m.imageDir, spec.Name+".qcow2")

	doc, err := domain.Build(spec, emulatorPath, diskPath)
	if err != nil {
		return nil, &DefineError{Name: spec.Name, Err: err}
	}

	if err := m.plane.DefineDomain(doc); err != nil {
		return nil, &DefineError{Name: spec.Name, Err: m.observe(err)}
	}

	info, err := m.plane.DomainInfo(spec.Name)
	if err != nil {
		return nil, &DefineError{Name: spec.Name, Err: m.observe(err)}
	}
	return vmFromInfo(spec.Name, info), nil
}

// StartVM boots a defined VM after checking that it is not already running.
// The check is a fresh query, not cached state, but remains racy against
// out-of-band actors.
func (m *Manager) StartVM(ctx context.Context, name string) error {
	info, err := m.queryInfo(ctx, name)
	if err != nil {
		return fmt.Errorf("start vm %q: %w", name, err)
	}
	if info.State == VMStateRunning {
		return fmt.Errorf("start vm %q: %w", name, ErrAlreadyRunning)
	}

	if err := m.plane.StartDomain(name); err != nil {
		return fmt.Errorf("start vm %q: %w", name, m.observe(err))
	}
	return nil
}

// StopVM requests a graceful ACPI shutdown. The control plane treats the
// request as asynchronous; the VM may still be running when this returns.
func (m *Manager) StopVM(ctx context.Context, name string) error {
	if err := m.checkReady(ctx); err != nil {
		return fmt.Errorf("stop vm %q: %w", name, err)
	}

	if err := m.plane.ShutdownDomain(name); err != nil {
		return fmt.Errorf("stop vm %q: %w", name, m.observe(err))
	}
	return nil
}

// ForceStopVM terminates the VM immediately. A VM already shut off is left
// alone and the call succeeds, so force-stop is safe to repeat.
func (m *Manager) ForceStopVM(ctx context.Context, name string) error {
	info, err := m.queryInfo(ctx, name)
	if err != nil {
		return fmt.Errorf("force stop vm %q: %w", name, err)
	}
	if info.State == VMStateShutOff {
		return nil
	}

	if err := m.plane.DestroyDomain(name); err != nil {
		return fmt.Errorf("force stop vm %q: %w", name, m.observe(err))
	}
	return nil
}

// UndefineVM removes the persistent definition of a shut-off VM. A VM in any
// other state fails with ErrNotShutOff and is left untouched.
func (m *Manager) UndefineVM(ctx context.Context, name string) error {
	info, err := m.queryInfo(ctx, name)
	if err != nil {
		return fmt.Errorf("undefine vm %q: %w", name, err)
	}
	if info.State != VMStateShutOff {
		return fmt.Errorf("undefine vm %q (state %s): %w", name, info.State, ErrNotShutOff)
	}

	if err := m.plane.UndefineDomain(name); err != nil {
		return fmt.Errorf("undefine vm %q: %w", name, m.observe(err))
	}
	return nil
}

// LookupVM resolves a VM by name. A missing VM is an expected outcome,
// reported as found=false with no error; only connectivity or control-plane
// failures error.
func (m *Manager) LookupVM(ctx context.Context, name string) (*VM, bool, error) {
	info, err := m.queryInfo(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup vm %q: %w", name, err)
	}
	return vmFromInfo(name, info), true, nil
}

// ListVMs returns a snapshot of every domain, active and inactive. Order is
// whatever the control plane returned. A domain that disappears between
// enumeration and inspection is skipped rather than failing the whole list.
func (m *Manager) ListVMs(ctx context.Context) ([]VM, error) {
	if err := m.checkReady(ctx); err != nil {
		return nil, fmt.Errorf("list vms: %w", err)
	}

	names, err := m.plane.ListDomains()
	if err != nil {
		return nil, fmt.Errorf("list vms: %w", m.observe(err))
	}

	out := make([]VM, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("list vms: %w", err)
		}
		info, err := m.plane.DomainInfo(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list vms: %w", m.observe(err))
		}
		out = append(out, *vmFromInfo(name, info))
	}
	return out, nil
}

// QueryState re-fetches the current state of the named VM from the control
// plane. Nothing is cached.
func (m *Manager) QueryState(ctx context.Context, name string) (VMState, error) {
	info, err := m.queryInfo(ctx, name)
	if err != nil {
		return VMStateUnknown, fmt.Errorf("query state of vm %q: %w", name, err)
	}
	return info.State, nil
}

// ----------------------------------------------------------------------------
// Internal helpers
// ----------------------------------------------------------------------------

// checkReady verifies the context is live and a session is held.
func (m *Manager) checkReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.plane == nil {
		return ErrNotConnected
	}
	return nil
}

// queryInfo fetches fresh domain info for name.
func (m *Manager) queryInfo(ctx context.Context, name string) (domainInfo, error) {
	if err := m.checkReady(ctx); err != nil {
		return domainInfo{}, err
	}
	info, err := m.plane.DomainInfo(name)
	if err != nil {
		return domainInfo{}, m.observe(err)
	}
	return info, nil
}

// observe inspects a control-plane error. Losing the session marks the
// manager disconnected: it never reconnects silently, because a silent
// reconnect would hide which operations completed against the old session.
func (m *Manager) observe(err error) error {
	if errors.Is(err, ErrConnectionLost) && m.plane != nil {
		_ = m.plane.Close()
		m.plane = nil
	}
	return err
}

func vmFromInfo(name string, info domainInfo) *VM {
	return &VM{
		Name:      name,
		State:     info.State,
		MemoryMiB: info.MemoryKiB / 1024,
		VCPUs:     info.VCPUs,
	}
}

// endpointSocket resolves an endpoint string to a daemon socket path.
func endpointSocket(endpoint string) (string, error) {
	if endpoint == "" {
		return "", errors.New("endpoint is empty")
	}
	if strings.HasPrefix(endpoint, "/") {
		return endpoint, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("malformed endpoint: %w", err)
	}

	switch u.Scheme {
	case "unix":
		if u.Path == "" {
			return "", fmt.Errorf("endpoint %q has no socket path", endpoint)
		}
		return u.Path, nil
	case "qemu":
		switch u.Path {
		case "/system":
			return systemSocket, nil
		case "/session":
			runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
			if runtimeDir == "" {
				return "", errors.New("qemu:///session requires XDG_RUNTIME_DIR")
			}
			return filepath.Join(runtimeDir, "libvirt", "libvirt-sock"), nil
		}
		return "", fmt.Errorf("unsupported qemu endpoint %q", endpoint)
	}
	return "", fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
}
