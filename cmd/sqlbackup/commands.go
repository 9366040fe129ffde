package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/semmidev/sqlbackup/internal/app"
	"github.com/semmidev/sqlbackup/internal/config"
)

type rootOptions struct {
	configPath string
	logFile    string
	logLevel   string
	logMode    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sqlbackup",
		Short: "Scheduled MySQL and PostgreSQL backups",
		Long: `sqlbackup dumps the databases listed in its configuration file when they
are due (daily, weekly or monthly), then compresses and verifies the dumps.
A failing database is logged and never stops the others.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "path to config file")
	flags.StringVar(&opts.logFile, "log-file", "", "write log messages to this file as well as stdout")
	flags.StringVar(&opts.logLevel, "log-level", "", "log verbosity (debug, info, warn, error)")
	flags.StringVar(&opts.logMode, "log-mode", "", "append to or overwrite the log file (append, overwrite)")

	cmd.AddCommand(newRunCmd(opts), newDaemonCmd(opts), newDueCmd(opts))
	return cmd
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if o.logFile != "" {
		cfg.App.LogFile = o.logFile
	}
	if o.logLevel != "" {
		cfg.App.LogLevel = o.logLevel
	}
	if o.logMode != "" {
		cfg.App.LogMode = o.logMode
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var failOnError bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Back up every database that is due today, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			application, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			defer application.Shutdown()

			report := application.RunOnce(cmd.Context())
			if failOnError && report.HasFailures() {
				return fmt.Errorf("%d database(s) did not back up", len(report.Failures()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any database fails")
	return cmd
}

func newDaemonCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run backups on the app.schedule cron spec until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			application, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			defer application.Shutdown()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return application.Run(ctx)
		},
	}
}

func newDueCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List which databases are due for backup today",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			plan, err := app.Plan(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SERVER\tDATABASE\tFREQUENCY\tDUE")
			for _, p := range plan {
				due := "no"
				switch {
				case p.Err != nil:
					due = "invalid frequency"
				case p.Due:
					due = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Server, p.Database, p.Frequency, due)
			}
			return w.Flush()
		},
	}
}
