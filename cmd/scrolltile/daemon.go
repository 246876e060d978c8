package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/scrolltile/internal/config"
	"github.com/1broseidon/scrolltile/internal/daemon"
	"github.com/1broseidon/scrolltile/internal/logging"
)

func runDaemon(args []string) int {
	fs := newFlagSet("daemon")
	path := fs.String("config", "", "Config file path (default: ~/.config/scrolltile/config.yaml)")
	backend := fs.String("backend", "", "Backend: auto, x11 or headless (default: config backend key)")
	socket := fs.String("socket", "", "IPC socket path (default: $SCROLLTILE_SOCKET or the runtime dir)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrolltile daemon [--config PATH] [--backend auto|x11|headless] [-- command args...]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the layout daemon in the foreground. A trailing command is started")
		fmt.Fprintln(os.Stderr, "once the daemon is ready, after spawn_at_startup. SIGHUP reloads the config.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	configPath := *path
	if configPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		configPath = p
	}

	res, loadErr := config.LoadOrDefault(configPath)
	logger, err := logging.New(res.Config.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		return 1
	}
	defer logger.Close()
	if loadErr != nil {
		logger.Warn("config failed to load, using defaults", "path", configPath, "error", loadErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = daemon.Run(ctx, daemon.Options{
		ConfigPath: configPath,
		Loaded:     res,
		Backend:    *backend,
		SocketPath: *socket,
		Command:    fs.Args(),
		Logger:     logger,
	})
	if err != nil {
		logger.Error("daemon failed", "error", err)
		return 1
	}
	return 0
}
