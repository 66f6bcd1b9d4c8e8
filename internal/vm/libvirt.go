package vm

import (
	"errors"
	"fmt"
	"net"

	"github.com/digitalocean/go-libvirt"
)

// libvirtPlane adapts the go-libvirt client to the controlPlane interface.
// go-libvirt speaks the libvirt RPC protocol directly over the daemon's unix
// socket, so no C bindings or build tags are involved. Domain refs returned
// by the client are plain values; re-resolving by name on every call costs
// one extra round trip and removes a whole class of stale-handle bugs.
type libvirtPlane struct {
	l *libvirt.Libvirt
}

// dialPlane is the seam Connect dials through. Tests substitute it to drive
// connect sequences without a live daemon.
var dialPlane = dialLibvirt

// dialLibvirt connects to the libvirt daemon socket and performs the protocol
// handshake. On handshake failure the raw connection is closed before
// returning, so a failed dial never leaks a half-open session.
func dialLibvirt(socketPath string) (controlPlane, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial libvirt socket %q: %w", socketPath, err)
	}

	l := libvirt.New(conn)
	if err := l.Connect(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("libvirt handshake: %w", err)
	}

	return &libvirtPlane{l: l}, nil
}

func (p *libvirtPlane) Close() error {
	if err := p.l.Disconnect(); err != nil {
		return fmt.Errorf("libvirt disconnect: %w", err)
	}
	return nil
}

func (p *libvirtPlane) DefineDomain(doc string) error {
	if _, err := p.l.DomainDefineXML(doc); err != nil {
		return p.mapErr(err)
	}
	return nil
}

func (p *libvirtPlane) DomainInfo(name string) (domainInfo, error) {
	dom, err := p.l.DomainLookupByName(name)
	if err != nil {
		return domainInfo{}, p.mapErr(err)
	}

	state, maxMem, mem, vcpus, _, err := p.l.DomainGetInfo(dom)
	if err != nil {
		return domainInfo{}, p.mapErr(err)
	}
	// Inactive domains report zero current memory; fall back to the
	// configured maximum so list/lookup still show the defined size.
	if mem == 0 {
		mem = maxMem
	}

	return domainInfo{
		State:     stateFromCode(libvirt.DomainState(state)),
		MemoryKiB: mem,
		VCPUs:     int(vcpus),
	}, nil
}

func (p *libvirtPlane) ListDomains() ([]string, error) {
	domains, _, err := p.l.ConnectListAllDomains(1,
		libvirt.ConnectListDomainsActive|libvirt.ConnectListDomainsInactive)
	if err != nil {
		return nil, p.mapErr(err)
	}

	names := make([]string, 0, len(domains))
	for _, d := range domains {
		names = append(names, d.Name)
	}
	return names, nil
}

func (p *libvirtPlane) StartDomain(name string) error {
	dom, err := p.l.DomainLookupByName(name)
	if err != nil {
		return p.mapErr(err)
	}
	if err := p.l.DomainCreate(dom); err != nil {
		return p.mapErr(err)
	}
	return nil
}

func (p *libvirtPlane) ShutdownDomain(name string) error {
	dom, err := p.l.DomainLookupByName(name)
	if err != nil {
		return p.mapErr(err)
	}
	if err := p.l.DomainShutdown(dom); err != nil {
		return p.mapErr(err)
	}
	return nil
}

func (p *libvirtPlane) DestroyDomain(name string) error {
	dom, err := p.l.DomainLookupByName(name)
	if err != nil {
		return p.mapErr(err)
	}
	if err := p.l.DomainDestroy(dom); err != nil {
		return p.mapErr(err)
	}
	return nil
}

func (p *libvirtPlane) UndefineDomain(name string) error {
	dom, err := p.l.DomainLookupByName(name)
	if err != nil {
		return p.mapErr(err)
	}
	if err := p.l.DomainUndefine(dom); err != nil {
		return p.mapErr(err)
	}
	return nil
}

// mapErr classifies go-libvirt errors into the package's sentinels. A
// structured libvirt error means the session is healthy and the daemon
// rejected the request; anything else came from the transport, which means
// the session is gone.
func (p *libvirtPlane) mapErr(err error) error {
	var lverr libvirt.Error
	if errors.As(err, &lverr) {
		if lverr.Code == uint32(libvirt.ErrNoDomain) {
			return fmt.Errorf("%w: %s", ErrNotFound, lverr.Message)
		}
		return err
	}
	return fmt.Errorf("%w: %v", ErrConnectionLost, err)
}

// stateFromCode maps a libvirt domain state code to a VMState.
func stateFromCode(s libvirt.DomainState) VMState {
	switch s {
	case libvirt.DomainRunning:
		return VMStateRunning
	case libvirt.DomainBlocked:
		return VMStateBlocked
	case libvirt.DomainPaused:
		return VMStatePaused
	case libvirt.DomainShutdown:
		return VMStateShuttingDown
	case libvirt.DomainShutoff:
		return VMStateShutOff
	case libvirt.DomainCrashed:
		return VMStateCrashed
	default:
		return VMStateUnknown
	}
}
