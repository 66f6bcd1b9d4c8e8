// Package domain renders libvirt domain XML documents from typed VM
// specifications.
package domain

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrInvalidSpec is wrapped by every validation failure in this package.
// Callers use errors.Is to distinguish a bad spec from a rendering problem.
var ErrInvalidSpec = errors.New("invalid vm spec")

// Backend selects the virtualization technology declared in the rendered
// document. It only changes the top-level domain type attribute; every other
// field of the description is backend-independent.
type Backend string

const (
	BackendQEMU Backend = "qemu"
	BackendKVM  Backend = "kvm"
)

// Valid reports whether b is a known backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendQEMU, BackendKVM:
		return true
	}
	return false
}

// Spec is the immutable set of user-supplied parameters a VM definition is
// built from. It is never mutated after construction; Build reads it and
// produces a rendered document.
type Spec struct {
	Name      string
	MemoryMiB int
	VCPUs     int
	Backend   Backend
}

// Validate checks spec against the constraints the control plane and the
// document format impose. All failures wrap ErrInvalidSpec.
func (s Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidSpec)
	}
	if err := checkName(s.Name); err != nil {
		return err
	}
	if s.MemoryMiB <= 0 {
		return fmt.Errorf("%w: memory %d MiB, must be positive", ErrInvalidSpec, s.MemoryMiB)
	}
	if s.VCPUs <= 0 {
		return fmt.Errorf("%w: vcpu count %d, must be positive", ErrInvalidSpec, s.VCPUs)
	}
	if !s.Backend.Valid() {
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidSpec, string(s.Backend))
	}
	return nil
}

// checkName rejects names that cannot be represented in a domain document.
// Markup metacharacters are fine (the serializer escapes them), but control
// characters are not encodable in XML 1.0 at all, so they are rejected
// outright rather than silently dropped.
func checkName(name string) error {
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: name contains control character %q", ErrInvalidSpec, r)
		}
	}
	return nil
}
