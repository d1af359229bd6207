package test

import (
	"context"
	"net"
	"testing"

	"github.com/kplatou/harborwatt/infra/metrics"
	"github.com/kplatou/harborwatt/test/util"
)

func TestSimulationMetricsExposed(t *testing.T) {
	runWeekday(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		t.Fatalf("close listener: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := metrics.StartPromServer(ctx, addr); err != nil {
			t.Errorf("prom server: %v", err)
		}
	}()

	wctx, wcancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer wcancel()
	for _, name := range []string{"sim_steps_total", "trip_transitions_total", "vessel_soc"} {
		if err := util.WaitForMetric(wctx, "http://"+addr+"/metrics", name); err != nil {
			t.Fatalf("metric %s: %v", name, err)
		}
	}
}
