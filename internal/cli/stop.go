package cli

import (
	"context"
	"fmt"

	"github.com/jgaskill/virtadm/internal/vm"
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Request a graceful shutdown of a virtual machine",
	Long: `Request a graceful ACPI shutdown of the named virtual machine.

The request is asynchronous: the guest decides when (and whether) to power
off. Use "virtadm status" to watch it, or "virtadm force-stop" when the guest
does not cooperate.`,
	Args: cobra.ExactArgs(1),
	RunE: runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	return withManager(func(ctx context.Context, mgr *vm.Manager) error {
		if err := mgr.StopVM(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("shutdown requested for VM %q\n", args[0])
		return nil
	})
}

var forceStopCmd = &cobra.Command{
	Use:   "force-stop <name>",
	Short: "Forcibly terminate a virtual machine",
	Long: `Forcibly terminate the named virtual machine, like pulling the power cord.

Unsaved guest data is lost. A VM that is already shut off is left alone, so
force-stop is safe to repeat.`,
	Args: cobra.ExactArgs(1),
	RunE: runForceStop,
}

func runForceStop(cmd *cobra.Command, args []string) error {
	return withManager(func(ctx context.Context, mgr *vm.Manager) error {
		if err := mgr.ForceStopVM(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("VM %q is shut off\n", args[0])
		return nil
	})
}
