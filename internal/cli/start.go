package cli

import (
	"context"
	"fmt"

	"github.com/jgaskill/virtadm/internal/vm"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Start a defined virtual machine",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	return withManager(func(ctx context.Context, mgr *vm.Manager) error {
		if err := mgr.StartVM(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("VM %q started\n", args[0])
		return nil
	})
}
