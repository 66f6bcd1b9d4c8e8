package cli

import (
	"context"
	"fmt"

	"github.com/jgaskill/virtadm/internal/vm"
	"github.com/spf13/cobra"
)

var undefineCmd = &cobra.Command{
	Use:   "undefine <name>",
	Short: "Remove a virtual machine's persistent definition",
	Long: `Remove the persistent definition of the named virtual machine.

The VM must be shut off first. The disk image is not deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: runUndefine,
}

func runUndefine(cmd *cobra.Command, args []string) error {
	return withManager(func(ctx context.Context, mgr *vm.Manager) error {
		if err := mgr.UndefineVM(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("VM %q undefined\n", args[0])
		return nil
	})
}
