package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-i2p/sloris/lib/core"
	apperrors "github.com/go-i2p/sloris/lib/errors"
	"github.com/spf13/cobra"
)

func newConfigCmd(stdout io.Writer) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file with default values",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return apperrors.Wrap(apperrors.CodeUsage, "config init", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return apperrors.Configuration(fmt.Sprintf("%s already exists (use --force to overwrite)", path), nil)
				}
			}

			if err := core.SaveConfig(core.DefaultConfig(), path); err != nil {
				return apperrors.Configuration("writing config file", err)
			}
			fmt.Fprintf(stdout, "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	configCmd.AddCommand(initCmd)
	return configCmd
}
