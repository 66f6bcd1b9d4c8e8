package cli

import (
	"context"
	"fmt"

	"github.com/jgaskill/virtadm/internal/vm"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show the current state of a virtual machine",
	Long:  `Query and print the current state of the named virtual machine. The state is always fetched fresh from the hypervisor.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withManager(func(ctx context.Context, mgr *vm.Manager) error {
		state, err := mgr.QueryState(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(state)
		return nil
	})
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Look up a virtual machine by name",
	Long:  `Look up the named virtual machine and print its details. A missing VM is reported without failing the command.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	return withManager(func(ctx context.Context, mgr *vm.Manager) error {
		v, found, err := mgr.LookupVM(ctx, args[0])
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("VM %q not found\n", args[0])
			return nil
		}
		fmt.Printf("name:   %s\n", v.Name)
		fmt.Printf("state:  %s\n", v.State)
		fmt.Printf("memory: %d MiB\n", v.MemoryMiB)
		fmt.Printf("vcpus:  %d\n", v.VCPUs)
		return nil
	})
}
