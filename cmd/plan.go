package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kplatou/harborwatt/app"
	"github.com/kplatou/harborwatt/config"
	"github.com/kplatou/harborwatt/pkg/export"
)

var (
	planDate   string
	planFormat string
	planOut    string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Solve one day-ahead charging plan and export it",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planDate, "date", "", "day to plan (YYYY-MM-DD, default today)")
	planCmd.Flags().StringVar(&planFormat, "format", "csv", "output format: csv or json")
	planCmd.Flags().StringVarP(&planOut, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if planDate != "" {
		if date, err = time.Parse("2006-01-02", planDate); err != nil {
			return fmt.Errorf("parse --date: %w", err)
		}
	}

	sched, err := app.Plan(ctx, cfg, date)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if planOut != "" {
		f, err := os.Create(planOut)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				cmd.PrintErrf("close output: %v\n", cerr)
			}
		}()
		out = f
	}
	switch planFormat {
	case "csv":
		return export.WriteCSV(out, sched)
	case "json":
		return export.WriteJSON(out, sched)
	default:
		return fmt.Errorf("unknown format %q", planFormat)
	}
}
