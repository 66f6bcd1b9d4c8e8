package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jgaskill/virtadm/internal/vm"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all virtual machines",
	Long:  `List every defined virtual machine, active and inactive, with its state, memory, and vCPU count.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	return withManager(func(ctx context.Context, mgr *vm.Manager) error {
		vms, err := mgr.ListVMs(ctx)
		if err != nil {
			return err
		}
		if len(vms) == 0 {
			fmt.Println("no virtual machines defined")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATE\tMEMORY\tVCPUS")
		for _, v := range vms {
			fmt.Fprintf(w, "%s\t%s\t%d MiB\t%d\n", v.Name, v.State, v.MemoryMiB, v.VCPUs)
		}
		return w.Flush()
	})
}
