package vm

// controlPlane is the narrow capability interface the manager consumes. All
// operations are addressed by domain name: the manager never holds a domain
// reference across calls, so a stale handle cannot outlive the state it was
// resolved against. Implementations report a missing domain by wrapping
// ErrNotFound and a failed session by wrapping ErrConnectionLost.
type controlPlane interface {
	// DefineDomain submits a rendered domain document. An existing domain
	// with the same name is replaced.
	DefineDomain(doc string) error

	// DomainInfo resolves name and returns its current state and resources.
	DomainInfo(name string) (domainInfo, error)

	// ListDomains returns the names of all domains, active and inactive.
	ListDomains() ([]string, error)

	// StartDomain boots a defined domain.
	StartDomain(name string) error

	// ShutdownDomain requests a graceful guest shutdown.
	ShutdownDomain(name string) error

	// DestroyDomain terminates a domain immediately. The persistent
	// definition is untouched.
	DestroyDomain(name string) error

	// UndefineDomain removes a domain's persistent definition.
	UndefineDomain(name string) error

	// Close ends the session. The implementation must tolerate being the
	// last call on a dead connection.
	Close() error
}

// domainInfo is the control plane's answer for one domain at one instant.
type domainInfo struct {
	State     VMState
	MemoryKiB uint64
	VCPUs     int
}
