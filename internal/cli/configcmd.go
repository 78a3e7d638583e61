package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"topnote/internal/config"
)

func newConfigCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file.",
		// The file may not exist yet, so skip loading it.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Write a configuration file with the default values.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path := flags.configPath()
				if err := config.WriteDefault(path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print where the configuration file is read from.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), flags.configPath())
				return nil
			},
		},
	)
	return cmd
}

func (f *rootFlags) configPath() string {
	if f.config != "" {
		return f.config
	}
	return config.DefaultPath()
}
