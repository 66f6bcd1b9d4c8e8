package cli

import (
	"fmt"

	"github.com/jgaskill/virtadm/internal/domain"
	"github.com/jgaskill/virtadm/internal/emulator"
	"github.com/jgaskill/virtadm/internal/vm"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Check connectivity to the hypervisor",
	Long:  `Open a session to the configured hypervisor endpoint and report whether it succeeded. Useful for verifying the endpoint and socket permissions before anything else.`,
	Args:  cobra.NoArgs,
	RunE:  runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("connected to %s\n", cfg.Hypervisor.Endpoint)
	return nil
}
