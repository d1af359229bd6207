package cmd

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/kplatou/harborwatt/config"
	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/infra/tripfile"
)

var (
	routeMotorKW  float64
	routeCruiseKn float64
)

var routesCmd = &cobra.Command{
	Use:   "routes [path...]",
	Short: "Inspect route files",
	Long: "Load route CSV files (or the directory named in the configuration) and " +
		"report each route's duration and the propulsion energy a reference vessel " +
		"would need to sail it.",
	RunE: runRoutes,
}

func init() {
	routesCmd.Flags().Float64Var(&routeMotorKW, "motor-kw", 100, "reference vessel motor power")
	routesCmd.Flags().Float64Var(&routeCruiseKn, "cruise-kn", 10, "reference vessel cruise speed")
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	if routeCruiseKn <= 0 {
		return fmt.Errorf("--cruise-kn must be positive")
	}
	paths := args
	if len(paths) == 0 {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		paths = []string{cfg.Routes.Path}
	}

	trips, err := collectTrips(paths)
	if err != nil {
		return err
	}
	k := routeMotorKW / math.Pow(routeCruiseKn, 3)
	for _, t := range trips {
		fmt.Printf("%-24s %3d waypoints  %8s  %7.1f kWh\n",
			t.Name, len(t.Waypoints), t.Duration(), t.EnergyKWh(k))
	}
	return nil
}

func collectTrips(paths []string) ([]*model.Trip, error) {
	var trips []*model.Trip
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			loaded, err := tripfile.LoadDir(p)
			if err != nil {
				return nil, err
			}
			trips = append(trips, loaded...)
			continue
		}
		t, err := tripfile.Load(p)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, nil
}
