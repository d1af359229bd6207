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
	"github.com/kplatou/harborwatt/infra/logger"
)

var (
	simFrom string
	simDays int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a port simulation",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simFrom, "from", "", "first simulated day (YYYY-MM-DD, default today)")
	simulateCmd.Flags().IntVar(&simDays, "days", 1, "number of days to simulate")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	from := time.Now().UTC().Truncate(24 * time.Hour)
	if simFrom != "" {
		from, err = time.Parse("2006-01-02", simFrom)
		if err != nil {
			return fmt.Errorf("parse --from: %w", err)
		}
	}
	if simDays < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx, from, from.AddDate(0, 0, simDays))
}
