package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kplatou/harborwatt/app"
	"github.com/kplatou/harborwatt/config"
	infrakpi "github.com/kplatou/harborwatt/infra/kpi"
)

var (
	kpiFrom string
	kpiTo   string
	kpiSave string
)

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Aggregate per-vessel daily energy KPIs from stored measurements",
	RunE:  runKPI,
}

func init() {
	kpiCmd.Flags().StringVar(&kpiFrom, "from", "", "first day (YYYY-MM-DD, default today)")
	kpiCmd.Flags().StringVar(&kpiTo, "to", "", "last day (YYYY-MM-DD, default --from)")
	kpiCmd.Flags().StringVar(&kpiSave, "save", "", "also write the records to a SQLite KPI file")
	rootCmd.AddCommand(kpiCmd)
}

func runKPI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	from := time.Now().UTC().Truncate(24 * time.Hour)
	if kpiFrom != "" {
		if from, err = time.Parse("2006-01-02", kpiFrom); err != nil {
			return fmt.Errorf("parse --from: %w", err)
		}
	}
	to := from
	if kpiTo != "" {
		if to, err = time.Parse("2006-01-02", kpiTo); err != nil {
			return fmt.Errorf("parse --to: %w", err)
		}
	}
	if to.Before(from) {
		return fmt.Errorf("--to %s is before --from %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	recs, err := app.Rollup(ctx, cfg, from, to)
	if err != nil {
		return err
	}

	cmd.Printf("%-20s %-10s %12s %12s %12s\n", "vessel", "day", "charged kWh", "sailed kWh", "net kWh")
	for _, r := range recs {
		cmd.Printf("%-20s %-10s %12.1f %12.1f %12.1f\n",
			r.Vessel, r.Date.Format("2006-01-02"), r.ChargedKWh, r.SailedKWh, r.NetKWh())
	}

	if kpiSave == "" {
		return nil
	}
	db, err := infrakpi.NewSQLiteStore(kpiSave)
	if err != nil {
		return fmt.Errorf("open %s: %w", kpiSave, err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmd.PrintErrf("close %s: %v\n", kpiSave, cerr)
		}
	}()
	for _, r := range recs {
		if err := db.Add(r); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	cmd.Printf("saved %d records to %s\n", len(recs), kpiSave)
	return nil
}
