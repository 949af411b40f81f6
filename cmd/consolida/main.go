// Package main provides the CLI entry point for consolida.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/consolida-dev/consolida/pkg/consolida"
	"github.com/consolida-dev/consolida/pkg/consolida/backup"
	"github.com/consolida-dev/consolida/pkg/consolida/config"
	"github.com/consolida-dev/consolida/pkg/consolida/output"
	"github.com/consolida-dev/consolida/pkg/consolida/scan"
)

var (
	configPath string
	verbose    bool

	dryRun     bool
	protect    bool
	reportPath string
	asJSON     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "consolida",
		Short: "Consolidate subordinate spreadsheets into one master workbook",
		Long: `consolida merges every subordinate .xlsx found in the configured
directory into a single master workbook. Rows are deduplicated, cell
styles are interned so the master never carries two renditions of the
same style, formulas are rewritten for their new positions, and
conditional formats are merged. The previous master is backed up
before it is replaced.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one consolidation",
		Args:  cobra.NoArgs,
		RunE:  runConsolidation,
	}
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Merge without backing up or writing the master")
	runCmd.Flags().BoolVar(&protect, "protect", false, "Protect the master sheet against accidental edits")
	runCmd.Flags().StringVar(&reportPath, "report", "", "Write the JSON report to this path")
	runCmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON instead of a summary")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "List the subordinate spreadsheets a run would consolidate",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}

	backupsCmd := &cobra.Command{
		Use:   "backups",
		Short: "Manage master backups",
	}
	backupsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List master backups, newest first",
			Args:  cobra.NoArgs,
			RunE:  runBackupsList,
		},
		&cobra.Command{
			Use:   "prune",
			Short: "Delete backups older than the configured retention",
			Args:  cobra.NoArgs,
			RunE:  runBackupsPrune,
		},
		&cobra.Command{
			Use:   "restore [backup-file]",
			Short: "Copy a backup over the current master, backing the master up first",
			Args:  cobra.ExactArgs(1),
			RunE:  runBackupsRestore,
		},
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file and create the data directories",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}

	rootCmd.AddCommand(runCmd, scanCmd, backupsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger shared by all
// subcommands.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return cfg, log, nil
}

func runConsolidation(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := consolida.Run(ctx, *cfg, consolida.Options{
		DryRun:  dryRun,
		Protect: protect,
		Logger:  log,
	})

	// The report exists whether the run assembled or failed.
	if reportPath != "" {
		if werr := output.WriteReport(res.Report, reportPath); werr != nil {
			log.Error("report not written", slog.Any("error", werr))
		}
	}
	if asJSON {
		data, jerr := output.ToJSON(res.Report, true)
		if jerr != nil {
			return jerr
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		fmt.Fprint(cmd.OutOrStdout(), output.Summary(res.Report))
	}
	return runErr
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	sc := scan.New(cfg.SubordinatesDir, scan.Options{MaxFileSize: cfg.MaxFileSize(), MinRows: cfg.MinRows}, log)
	res, err := sc.Scan(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), output.Sources(res.Refs, res.Skipped))
	return nil
}

func runBackupsList(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	records, err := backup.New(cfg.BackupDir, log).List(cfg.MasterName)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), output.Backups(records))
	return nil
}

func runBackupsPrune(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if cfg.RetentionDays <= 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "retention_days is 0, pruning disabled")
		return nil
	}
	removed, err := backup.New(cfg.BackupDir, log).Prune(time.Duration(cfg.RetentionDays) * 24 * time.Hour)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d backup(s) removed\n", removed)
	return nil
}

func runBackupsRestore(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if err := backup.New(cfg.BackupDir, log).Restore(args[0], cfg.MasterPath()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored %s to %s\n", args[0], cfg.MasterPath())
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := config.Ensure(configPath); err != nil {
		return err
	}
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "config %s ready, data directories created\n", configPath)
	return nil
}
