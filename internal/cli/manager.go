package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgaskill/virtadm/internal/config"
	"github.com/jgaskill/virtadm/internal/domain"
	"github.com/jgaskill/virtadm/internal/emulator"
	"github.com/jgaskill/virtadm/internal/vm"
)

var (
	flagEndpoint string
	flagImageDir string
	flagConfig   string
)

// loadSettings resolves the effective configuration: config file (when
// given), then environment, then command-line flags, last one wins. An
// explicitly requested config file that cannot be read is an error, not a
// silent fallback.
func loadSettings() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flagConfig != "" {
		loaded, err := config.LoadConfig(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	config.ApplyEnvOverrides(cfg)

	if flagEndpoint != "" {
		cfg.Hypervisor.Endpoint = flagEndpoint
	}
	if flagImageDir != "" {
		cfg.Hypervisor.ImageDir = flagImageDir
	}
	return cfg, nil
}

// withManager connects a lifecycle manager per the effective settings, runs
// fn with a signal-aware context, and releases the connection afterwards.
func withManager(fn func(ctx context.Context, mgr *vm.Manager) error) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	mgr := vm.NewManager(
		domain.Backend(cfg.Hypervisor.Backend),
		emulator.ProbeLocator{},
		cfg.Hypervisor.ImageDir,
	)
	if err := mgr.Connect(cfg.Hypervisor.Endpoint); err != nil {
		return err
	}
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, mgr)
}
