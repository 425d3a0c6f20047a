package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration after defaults, file, .env, and environment are merged",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := loaded.Config.YAML()
		if err != nil {
			return err
		}
		source := loaded.File
		if source == "" {
			source = "defaults and environment only"
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", source, out)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if loaded.File == "" {
			return fmt.Errorf("no config file found; run 'instadash init' to create one")
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), loaded.File)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
