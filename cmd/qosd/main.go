// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command qosd runs the userspace packet shaper: it drives the ingestion
// loop across the numbered kernel queues, serves Prometheus metrics, and
// serves the statistics dashboard, until SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"net/http"

	"github.com/Tom-Plants/UserSpaceQOS/internal/dashboard"
	"github.com/Tom-Plants/UserSpaceQOS/internal/ingress"
	"github.com/Tom-Plants/UserSpaceQOS/internal/obslog"
	"github.com/Tom-Plants/UserSpaceQOS/internal/shaper"
)

func main() {
	globalRate := flag.Float64("global-rate", 0, "Global token bucket rate in bytes/sec (0 = default tuning)")
	globalBurst := flag.Float64("global-burst", 0, "Global token bucket burst in bytes (0 = default tuning)")
	highRate := flag.Float64("high-rate", 0, "High-priority token bucket rate in bytes/sec (0 = default tuning)")
	highBurst := flag.Float64("high-burst", 0, "High-priority token bucket burst in bytes (0 = default tuning)")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus /metrics listen address")
	dashboardAddr := flag.String("dashboard-addr", ":8081", "Dashboard HTTP listen address")
	fixture := flag.Bool("fixture", false, "Run against an in-memory mock queue with synthetic traffic instead of a live kernel hook")
	flag.Parse()

	cfg := shaper.DefaultConfig()
	if *globalRate > 0 {
		cfg.GlobalRateBps = *globalRate
	}
	if *globalBurst > 0 {
		cfg.GlobalBurstByte = *globalBurst
	}
	if *highRate > 0 {
		cfg.HighRateBps = *highRate
	}
	if *highBurst > 0 {
		cfg.HighBurstByte = *highBurst
	}
	cfg.MetricsAddr = *metricsAddr
	cfg.DashboardAddr = *dashboardAddr
	cfg.Fixture = *fixture

	if !cfg.Fixture {
		obslog.Logger.Fatal().Msg("live NFQUEUE binding is not built into this daemon; rerun with -fixture, or wire internal/ingress.PacketQueue to a netlink-backed queue")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	mocks := make([]*ingress.MockQueue, shaper.NumQueues)
	queues := make([]ingress.PacketQueue, shaper.NumQueues)
	for i := range mocks {
		mocks[i] = ingress.NewMockQueue(i, shaper.QueueMaxLen)
		queues[i] = mocks[i]
	}

	engine := shaper.NewEngine(cfg, queues)

	registry := prometheus.NewRegistry()
	metrics := shaper.NewMetrics(registry)
	reporter := shaper.NewReporter(engine, metrics, time.Second)
	reporter.Start()
	defer reporter.Stop()

	go runFixtureTraffic(ctx, mocks)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		obslog.Logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obslog.Logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	dashboardSrv := dashboard.New(shaper.NewDashboardSource(engine), time.Second)
	go func() {
		if err := dashboardSrv.Run(ctx, cfg.DashboardAddr); err != nil {
			obslog.Logger.Error().Err(err).Msg("dashboard server failed")
		}
	}()

	go engine.Run(ctx)

	<-stop
	obslog.Logger.Info().Msg("shutting down")
	cancel()
	time.Sleep(200 * time.Millisecond) // let Engine.Run's final CollectDropped pass flush
}

// runFixtureTraffic injects synthetic UDP packets across all six queues
// until ctx is cancelled, for -fixture mode demos.
func runFixtureTraffic(ctx context.Context, mocks []*ingress.MockQueue) {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	rng := rand.New(rand.NewSource(1))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q := rng.Intn(len(mocks))
			payload := syntheticPacket(rng, 64+rng.Intn(1400))
			mocks[q].Inject(payload)
		}
	}
}

func syntheticPacket(rng *rand.Rand, payloadLen int) []byte {
	udpLen := 8 + payloadLen
	totalLen := 20 + udpLen
	pkt := make([]byte, totalLen)
	pkt[0] = 0x45
	pkt[2] = byte(totalLen >> 8)
	pkt[3] = byte(totalLen)
	pkt[8] = 64
	pkt[9] = 17
	pkt[12], pkt[13], pkt[14], pkt[15] = 10, 0, 0, byte(1+rng.Intn(5))
	pkt[16], pkt[17], pkt[18], pkt[19] = 10, 0, 0, 100
	pkt[20] = byte(rng.Intn(256))
	pkt[21] = byte(rng.Intn(256))
	pkt[22], pkt[23] = 0, 80
	pkt[24] = byte(udpLen >> 8)
	pkt[25] = byte(udpLen)
	return pkt
}
