package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pumpkincraft/pumpkincore/pkg/config"
	"github.com/pumpkincraft/pumpkincore/pkg/logging"
	"github.com/pumpkincraft/pumpkincore/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (defaults built in if omitted)")
	address := flag.String("address", "", "Override the listen address")
	motd := flag.String("motd", "", "Override the server MOTD")
	onlineMode := flag.Bool("online-mode", true, "Verify players against the session service")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}
	if *motd != "" {
		cfg.MOTD = *motd
	}
	cfg.OnlineMode = *onlineMode

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("constructing server", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(); err != nil {
		logger.Error("starting server", "error", err)
		os.Exit(1)
	}

	logger.Info("server started", "address", cfg.Address, "max_players", cfg.MaxPlayers, "online_mode", cfg.OnlineMode)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case <-srv.StopChan():
		logger.Info("shutting down (internal)")
	}

	srv.Stop()
	logger.Info("server stopped")
}
