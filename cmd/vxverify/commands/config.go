package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/vxverify/vxverify/internal/config"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate and print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			source := cfgFile
			if _, err := os.Stat(cfgFile); errors.Is(err, fs.ErrNotExist) {
				source = "built-in defaults"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config %s is valid\n", source)
			fmt.Fprintf(out, "  App:         %s\n", cfg.Oracle.AppSlug)
			fmt.Fprintf(out, "  Commitment:  %s\n", cfg.Oracle.Commitment)
			fmt.Fprintf(out, "  Public key:  %s\n", cfg.Oracle.PublicKey)
			fmt.Fprintf(out, "  Suite:       %s\n", cfg.Oracle.Suite)
			fmt.Fprintf(out, "  Server:      %s\n", cfg.Server.URL)
			fmt.Fprintf(out, "  Retries:     %d\n", cfg.Server.MaxRetries)
			return nil
		},
	}

	cmd.AddCommand(newConfigShowCmd(), newConfigInitCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default bustabit settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Lstat(cfgFile); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", cfgFile)
			}
			if err := config.Defaults().Save(cfgFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
