// Command partscoped serves the partscope inventory API.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"partscope/internal/config"
	"partscope/internal/daemon"
	"partscope/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	deps, err := buildDeps(cfg, logger)
	if err != nil {
		logger.Error("initialize services", logging.Args(logging.ErrorAttrs(err)...)...)
		log.Fatalf("initialize services: %v", err)
	}

	d, err := daemon.New(cfg, deps, logger)
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("partscoped shutting down")
}
