package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sociogrid/internal/config"
)

func newConfigCmd(e *env) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View sociogrid configuration",
		Long: `View sociogrid configuration.

Without arguments, displays the effective configuration. Settings come from
the built-in defaults, the config file and SOCIOGRID_* environment variables.`,
		RunE: e.runConfigShow,
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			RunE:  e.runConfigShow,
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create a default config file",
			Long:  `Create a default config file at ~/.config/sociogrid/config.yaml.`,
			RunE:  e.runConfigInit,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the config file path",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), config.ConfigFile())
				return nil
			},
		},
	)
	return configCmd
}

func (e *env) runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := e.cfg

	if used := e.v.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", used)
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n\n")
	}

	fmt.Fprintln(out, "grid:")
	fmt.Fprintf(out, "  page_sizes: %v\n", cfg.Grid.PageSizes)
	fmt.Fprintf(out, "  default_page_size: %d\n", cfg.Grid.DefaultPageSize)
	fmt.Fprintf(out, "  empty_title: %q\n", cfg.Grid.EmptyTitle)
	fmt.Fprintf(out, "  empty_description: %q\n", cfg.Grid.EmptyDescription)
	fmt.Fprintf(out, "  max_cell_width: %d\n", cfg.Grid.MaxCellWidth)

	fmt.Fprintln(out, "csv:")
	fmt.Fprintf(out, "  delimiter: %q\n", cfg.CSV.Delimiter)
	fmt.Fprintf(out, "  has_headers: %v\n", cfg.CSV.HasHeaders)
	fmt.Fprintf(out, "  null_values: [%s]\n", strings.Join(quoteAll(cfg.CSV.NullValues), ", "))

	fmt.Fprintln(out, "remote:")
	fmt.Fprintf(out, "  api_timeout_seconds: %d\n", cfg.Remote.APITimeoutSeconds)
	fmt.Fprintf(out, "  page_size: %d\n", cfg.Remote.PageSize)
	fmt.Fprintf(out, "  profile_path: %q\n", cfg.Remote.ProfilePath)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  dir: %q\n", cfg.Logging.Dir)
	return nil
}

func (e *env) runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ConfigFile()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := e.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", path)
	return nil
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
