package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	flagChains     = "chains"
	flagValidators = "validators"
	flagThreshold  = "threshold"
	flagOverwrite  = "overwrite"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config with fresh validator keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := cmd.Flags().GetString(flagHome)
			if err != nil {
				return err
			}
			chains, err := cmd.Flags().GetInt(flagChains)
			if err != nil {
				return err
			}
			validators, err := cmd.Flags().GetInt(flagValidators)
			if err != nil {
				return err
			}
			threshold, err := cmd.Flags().GetUint8(flagThreshold)
			if err != nil {
				return err
			}
			overwrite, err := cmd.Flags().GetBool(flagOverwrite)
			if err != nil {
				return err
			}

			if _, err := os.Stat(filepath.Join(home, ConfigFileName)); err == nil && !overwrite {
				return fmt.Errorf("config already exists in %s, use --%s to replace it", home, flagOverwrite)
			}

			cfg, err := DefaultConfig(chains, validators, threshold)
			if err != nil {
				return err
			}
			path, err := WriteConfig(home, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().Int(flagChains, 2, "number of domains")
	cmd.Flags().Int(flagValidators, 3, "number of validators securing every route")
	cmd.Flags().Uint8(flagThreshold, 2, "signatures required per checkpoint")
	cmd.Flags().Bool(flagOverwrite, false, "replace an existing config")
	return cmd
}
