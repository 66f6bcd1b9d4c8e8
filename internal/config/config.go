// Package config provides configuration loading and defaults for virtadm.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ResourceFilter holds allowlist and denylist entries for VM names.
type ResourceFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// SafetyConfig groups the resource filters applied before any lifecycle
// operation.
type SafetyConfig struct {
	VMs ResourceFilter `yaml:"vms"`
}

// HypervisorConfig holds the control-plane endpoint and definition defaults.
type HypervisorConfig struct {
	// Endpoint is the libvirt endpoint: a socket path, unix:///path,
	// qemu:///system, or qemu:///session.
	Endpoint string `yaml:"endpoint"`
	// Backend is the default virtualization backend for new definitions.
	Backend string `yaml:"backend"`
	// ImageDir is the directory VM disk image paths are derived from.
	ImageDir string `yaml:"image_dir"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// ServerConfig holds network and authentication settings for the MCP server.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// Config is the top-level configuration structure for virtadm.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Hypervisor HypervisorConfig `yaml:"hypervisor"`
	Safety     SafetyConfig     `yaml:"safety"`
	Audit      AuditConfig      `yaml:"audit"`
}

// LoadConfig reads and parses a YAML configuration file from the given path.
// On error, nil is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Hypervisor: HypervisorConfig{
			Endpoint: "qemu:///system",
			Backend:  "qemu",
			ImageDir: "/var/lib/libvirt/images",
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "/var/log/virtadm/audit.log",
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment
// variables. Recognized variables:
//   - VIRTADM_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - VIRTADM_ENDPOINT overrides cfg.Hypervisor.Endpoint
//   - VIRTADM_IMAGE_DIR overrides cfg.Hypervisor.ImageDir
func ApplyEnvOverrides(cfg *Config) {
	if token := os.Getenv("VIRTADM_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
	if endpoint := os.Getenv("VIRTADM_ENDPOINT"); endpoint != "" {
		cfg.Hypervisor.Endpoint = endpoint
	}
	if dir := os.Getenv("VIRTADM_IMAGE_DIR"); dir != "" {
		cfg.Hypervisor.ImageDir = dir
	}
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
