package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const flagHome = "home"

// DefaultHome is where hypsim keeps its config unless --home is given.
var DefaultHome = filepath.Join(userHomeDir(), ".hypsim")

// NewRootCmd creates the hypsim command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hypsim",
		Short: "Simulate a local network of Hyperlane chains",
		Long: `hypsim runs several Hyperlane domains in one process. Every domain gets a
mailbox, a merkle tree hook, an interchain gas paymaster, a multisig ism and the
checkpoint fraud proof contracts. An in-process relayer carries messages between
them, signing checkpoints with the validator keys from the config.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String(flagHome, DefaultHome, "directory holding the hypsim config")

	rootCmd.AddCommand(
		initCmd(),
		runCmd(),
	)
	return rootCmd
}

func userHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
