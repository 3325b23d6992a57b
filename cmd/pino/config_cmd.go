package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/pino/internal/config"
	"github.com/jmylchreest/pino/internal/theme"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(root)
			if err != nil {
				return err
			}
			if err := config.WriteTemplate(path, force); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config and stylesheet paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(root)
			if err != nil {
				return err
			}
			stylePath, err := config.StylePath()
			if err != nil {
				return err
			}
			palettePath, err := theme.PalettePath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:  %s\n", path)
			fmt.Fprintf(out, "style:   %s\n", stylePath)
			fmt.Fprintf(out, "palette: %s\n", palettePath)
			return nil
		},
	}

	var forceTemplates bool
	walCmd := &cobra.Command{
		Use:   "wal-templates",
		Short: "Install the pywal and walrs palette templates",
		Long: `Install colors-pino.toml templates for pywal and walrs. The next palette
generation renders ~/.cache/wal/colors-pino.toml, which pino reads when
pywal.pywal is enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userDir, err := os.UserConfigDir()
			if err != nil {
				return err
			}
			written, err := theme.EnsureTemplates(userDir, forceTemplates)
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			if err != nil {
				return err
			}
			if len(written) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "templates already installed, use --force to overwrite")
			}
			return nil
		},
	}
	walCmd.Flags().BoolVar(&forceTemplates, "force", false, "Overwrite existing templates")

	cmd.AddCommand(initCmd, pathCmd, walCmd)
	return cmd
}

// configPath returns -c or the default config path.
func configPath(root *rootOptions) (string, error) {
	if root.configPath != "" {
		return config.ExpandPath(root.configPath), nil
	}
	return config.Path()
}
