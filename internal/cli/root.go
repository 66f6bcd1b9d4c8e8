// Package cli provides the virtadm command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "virtadm",
	Short: "virtadm - manage libvirt virtual machines",
	Long: `virtadm defines, starts, stops, and removes libvirt virtual machines.

It talks directly to the libvirt daemon socket, so it works wherever the
daemon runs: qemu:///system, qemu:///session, or a bare socket path.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "libvirt endpoint (socket path, unix:///path, qemu:///system, qemu:///session)")
	rootCmd.PersistentFlags().StringVar(&flagImageDir, "image-dir", "", "directory VM disk images live in")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the virtadm config file")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(defineCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(forceStopCmd)
	rootCmd.AddCommand(undefineCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(lookupCmd)
}
