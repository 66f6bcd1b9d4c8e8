package cli

import (
	"context"
	"fmt"

	"github.com/jgaskill/virtadm/internal/domain"
	"github.com/jgaskill/virtadm/internal/vm"
	"github.com/spf13/cobra"
)

var (
	flagMemoryMiB int
	flagVCPUs     int
	flagBackend   string
)

var defineCmd = &cobra.Command{
	Use:   "define <name>",
	Short: "Define a new virtual machine",
	Long: `Define a virtual machine with the given name, memory, and vCPU count.

The disk image path is derived from the image directory as <name>.qcow2; the
image itself is not created. Defining a name that already exists replaces its
definition.`,
	Args: cobra.ExactArgs(1),
	RunE: runDefine,
}

func init() {
	defineCmd.Flags().IntVar(&flagMemoryMiB, "memory", 1024, "memory size in MiB")
	defineCmd.Flags().IntVar(&flagVCPUs, "vcpus", 1, "number of virtual CPUs")
	defineCmd.Flags().StringVar(&flagBackend, "backend", "", "virtualization backend (qemu or kvm)")
}

func runDefine(cmd *cobra.Command, args []string) error {
	return withManager(func(ctx context.Context, mgr *vm.Manager) error {
		spec := domain.Spec{
			Name:      args[0],
			MemoryMiB: flagMemoryMiB,
			VCPUs:     flagVCPUs,
			Backend:   domain.Backend(flagBackend),
		}
		v, err := mgr.DefineVM(ctx, spec)
		if err != nil {
			return err
		}
		fmt.Printf("defined VM %q (%d MiB, %d vCPUs)\n", v.Name, v.MemoryMiB, v.VCPUs)
		return nil
	})
}
