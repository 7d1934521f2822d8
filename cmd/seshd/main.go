package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/willothy/sesh/internal/config"
	"github.com/willothy/sesh/internal/logger"
	"github.com/willothy/sesh/internal/server"
	"github.com/willothy/sesh/internal/session"
)

func main() {
	cfgPath := flag.String("config", config.DefaultPath(), "path to configuration file")
	socketPath := flag.String("socket", "", "server socket path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seshd: %v\n", err)
		os.Exit(1)
	}
	if *socketPath != "" {
		cfg.SocketPath = *socketPath
	}

	logger.SetDebug(cfg.Debug)
	if err := logger.Init(config.ServerLogPath()); err != nil {
		fmt.Fprintf(os.Stderr, "seshd: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	manager := session.NewManager(time.Duration(cfg.KillGraceMs)*time.Millisecond, cfg.ExitOnEmpty)
	srv := server.NewServer(cfg.SocketPath, manager)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case sig := <-sigCh:
		logger.Info("signal received, shutting down", "signal", sig)
	case <-srv.ShutdownRequests():
		logger.Info("shutdown requested by client")
	case <-manager.ExitRequests():
		logger.Info("last session gone, exiting")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "err", err)
			srv.Stop()
			os.Exit(1)
		}
		return
	}

	manager.Shutdown()
	srv.Stop()
}
