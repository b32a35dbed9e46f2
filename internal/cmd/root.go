package cmd

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sociogrid/internal/config"
	"sociogrid/internal/logging"
	"sociogrid/windows"
)

// env is what every command gets after the configuration is loaded.
type env struct {
	v   *viper.Viper
	cfg *config.Config
	log *logging.Logger
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Without a sub-command sociogrid opens
// the desktop browser, optionally with a file.
func NewRootCmd() *cobra.Command {
	e := &env{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "sociogrid [file]",
		Short: "Browse tabular data in a paginated grid",
		Long: `Sociogrid shows CSV, Parquet and JSON files, and Delta Sharing tables,
in a data grid with sorting, filtering, column visibility, row selection
and pagination.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.log != nil {
				_ = e.log.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.runBrowser(args)
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/sociogrid/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: "+fmt.Sprint(logging.ValidLevels()))
	_ = e.v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = e.v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(newPrintCmd(e), newExportCmd(e), newConfigCmd(e))
	return rootCmd
}

func (e *env) load() error {
	if err := config.Init(e.v, e.v.GetString("config")); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := config.Load(e.v)
	if err != nil {
		return err
	}
	log, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	e.cfg = cfg
	e.log = log
	return nil
}

func (e *env) runBrowser(args []string) error {
	a := app.NewWithID("io.sociogrid")
	mw := windows.CreateMainWindow(a, e.cfg, e.log)

	if p := e.cfg.Remote.ProfilePath; p != "" {
		content, err := os.ReadFile(p)
		if err != nil {
			e.log.Warn("default profile not readable", "path", p, "err", err)
		} else {
			mw.LoadProfile(string(content))
		}
	}
	if len(args) == 1 {
		mw.LoadDataFile(args[0])
	}

	e.log.Info("sociogrid started")
	mw.ShowAndRun()
	return nil
}
