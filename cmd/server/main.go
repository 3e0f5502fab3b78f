package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/limaJavier/school-timetabling/internal/config"
	"github.com/limaJavier/school-timetabling/internal/logger"
	"github.com/limaJavier/school-timetabling/internal/metrics"
	"github.com/limaJavier/school-timetabling/internal/server"
)

func main() {
	configPathPtr := flag.String("config", "", "Path to an optional configuration file (json, yaml or env)")
	flag.Parse()

	cfg, err := config.Load(*configPathPtr)
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := server.NewRouter(cfg, zapLogger, metrics.NewMetricsService())
	if err := server.Run(ctx, cfg, router, zapLogger); err != nil {
		zapLogger.Sugar().Errorw("server stopped", "error", err)
		os.Exit(1)
	}
}
