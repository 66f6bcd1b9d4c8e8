// Package emulator locates the hypervisor emulator binary on the host.
package emulator

import (
	"errors"
	"os"
	"os/exec"
)

// ErrNotFound is returned when no emulator binary exists at any probed
// location or on PATH.
var ErrNotFound = errors.New("emulator binary not found")

// binaryName is the conventional name of the x86_64 system emulator.
const binaryName = "qemu-system-x86_64"

// defaultPaths are probed in order before falling back to PATH lookup.
var defaultPaths = []string{
	"/opt/homebrew/bin/qemu-system-x86_64", // Homebrew (Apple Silicon)
	"/usr/local/bin/qemu-system-x86_64",    // Homebrew (Intel)
	"/usr/bin/qemu-system-x86_64",          // Linux standard
}

// Locator finds the emulator binary for domain definitions. It is a
// capability so that the lifecycle manager can be tested without a real
// emulator installed.
type Locator interface {
	Find() (string, error)
}

// ProbeLocator probes a fixed ordered list of conventional install locations
// and falls back to a PATH lookup. The zero value probes the default
// locations.
type ProbeLocator struct {
	// Paths overrides the probed locations when non-nil.
	Paths []string
}

// Find returns the first probed path that is an executable regular file,
// or the PATH lookup result, or ErrNotFound.
func (p ProbeLocator) Find() (string, error) {
	paths := p.Paths
	if paths == nil {
		paths = defaultPaths
	}

	for _, path := range paths {
		if isExecutable(path) {
			return path, nil
		}
	}

	if path, err := exec.LookPath(binaryName); err == nil {
		return path, nil
	}
	return "", ErrNotFound
}

// isExecutable reports whether path is a regular file with an execute bit.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
