package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jcpsimmons/teachat/pkg/app"
	"github.com/jcpsimmons/teachat/pkg/config"
	"github.com/jcpsimmons/teachat/pkg/logging"
	"github.com/jcpsimmons/teachat/pkg/server"
)

func main() {
	var configFile string
	var port int
	var verbose bool

	flag.StringVar(&configFile, "config", "", "Path to config file")
	flag.IntVar(&port, "port", 0, "Server port (default from config)")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		log.Fatalf("Invalid config: %v", errors.Join(errs...))
	}

	logger, err := logging.New(cfg.Log.Level, verbose)
	if err != nil {
		log.Fatal(err)
	}
	flush := logging.Install(logger)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		zap.L().Error("Server failed", zap.Error(err))
		flush()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.GlobalConfig) error {
	a, err := app.Open(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Seed(ctx); err != nil {
		return err
	}

	return server.New(a.Sessions).ListenAndServe(ctx, cfg.Server.Port)
}
