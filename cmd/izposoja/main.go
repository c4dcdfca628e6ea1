// Command izposoja runs the equipment rental desk service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/izposoja/internal/config"
	"github.com/erazemk/izposoja/internal/logging"
)

// app carries the flags and configuration shared by all commands.
type app struct {
	configPath string
	envFile    string
	dbPath     string
	logPath    string
	logLevel   string

	cfg      *config.Config
	closeLog func()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{closeLog: func() {}}

	root := &cobra.Command{
		Use:   "izposoja",
		Short: "Equipment rental desk: bookings, stock and returns",
		Long: `izposoja keeps track of rentable equipment, customers and bookings.

It serves a JSON API for the rental desk, checks availability for every
booking and runs periodic overdue checks and return reminders.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.closeLog()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&a.envFile, "env-file", ".env", "file with IZPOSOJA_* environment variables")
	flags.StringVarP(&a.dbPath, "db", "d", "", "SQLite database path (default: izposoja.sqlite3)")
	flags.StringVarP(&a.logPath, "log", "l", "", "log file path (default: stdout/stderr only)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(a),
		newInitCmd(a),
		newCheckOverdueCmd(a),
		newReportCmd(a),
		newReconcileCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database.Path = a.dbPath
	}
	if flags.Changed("log") {
		cfg.Log.File = a.logPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if addr, _ := flags.GetString("addr"); flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if user, _ := flags.GetString("user"); flags.Changed("user") {
		cfg.Server.AdminUser = user
	}

	closeLog, err := logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.closeLog = closeLog
	return nil
}
