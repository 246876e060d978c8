package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/1broseidon/scrolltile/internal/config"
	"github.com/1broseidon/scrolltile/internal/hotkeys"
	"github.com/1broseidon/scrolltile/internal/ipc"
	"github.com/1broseidon/scrolltile/internal/logging"
	"github.com/1broseidon/scrolltile/internal/metrics"
	"github.com/1broseidon/scrolltile/internal/platform"
	"github.com/1broseidon/scrolltile/internal/runtimepath"
	"github.com/1broseidon/scrolltile/internal/tiling"
	"github.com/1broseidon/scrolltile/internal/x11"
)

// Options configure Run.
type Options struct {
	ConfigPath string
	// Loaded is the config already read by the caller. Nil makes Run load
	// ConfigPath itself, falling back to the defaults.
	Loaded *config.LoadResult
	// Backend overrides the config's backend key when set.
	Backend string
	// SocketPath overrides the default IPC socket.
	SocketPath string
	// Command is started once the loop is ready, after spawn_at_startup.
	Command []string
	Logger  *logging.Logger
}

// HeadlessOutputs lays the configured headless outputs out left to right.
func HeadlessOutputs(cfg *config.Config) []platform.Output {
	out := make([]platform.Output, 0, len(cfg.HeadlessOutputs))
	x := 0
	for _, ho := range cfg.HeadlessOutputs {
		out = append(out, platform.Output{
			Name:       ho.Name,
			Rect:       tiling.Rect{X: x, Width: ho.Width, Height: ho.Height},
			RefreshMHz: ho.Refresh,
		})
		x += ho.Width
	}
	return out
}

// Run starts the daemon and blocks until ctx is cancelled. SIGHUP reloads
// the configuration.
func Run(ctx context.Context, opts Options) error {
	lg := opts.Logger
	if lg == nil {
		return errors.New("daemon: logger is required")
	}
	logger := lg.Logger

	path := opts.ConfigPath
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	res := opts.Loaded
	if res == nil {
		var err error
		res, err = config.LoadOrDefault(path)
		if err != nil {
			logger.Warn("config failed to load, using defaults", "path", path, "error", err)
		}
	}
	cfg := res.Config
	if err := lg.SetLevel(cfg.Logging.Level); err != nil {
		logger.Warn("invalid log level", "level", cfg.Logging.Level, "error", err)
	}

	kind := cfg.Backend
	if opts.Backend != "" {
		kind = opts.Backend
	}
	backend, err := platform.Open(kind, HeadlessOutputs(cfg), logger.With("component", "backend"))
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer backend.Disconnect()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	loop, err := NewLoop(LoopConfig{
		Backend:    backend,
		Config:     cfg,
		ConfigPath: path,
		Load:       func() (*config.LoadResult, error) { return config.LoadFromPath(path) },
		Metrics:    m,
		Logger:     logger.With("component", "loop"),
	})
	if err != nil {
		return err
	}

	socket := opts.SocketPath
	if socket == "" {
		socket, err = runtimepath.SocketPath()
		if err != nil {
			return err
		}
	}

	super := NewSupervisor(logger.With("component", "supervisor"))
	Add(super, NewServiceFunc("backend", backend.Run))
	Add(super, NewServiceFunc("ipc", ipc.NewServer(socket, loop, logger.With("component", "ipc")).Serve))
	Add(super, NewReconciler(ReconcilerConfig{
		Interval: cfg.ReconcileInterval,
		Logger:   logger.With("component", "reconciler"),
	}, backend, loop))
	if m != nil {
		Add(super, NewServiceFunc("metrics", metrics.NewServer(cfg.Metrics.Listen, m, loop, logger.With("component", "metrics")).Serve))
	}

	// The reload hook may restart the watcher, so never reload on its goroutine.
	watcher := newWatcherService(super, path, res.Files, func() {
		go func() {
			if _, err := loop.Reload(ctx); err != nil {
				logger.Warn("reload after file change failed", "error", err)
			}
		}()
	}, logger.With("component", "config-watcher"))
	loop.OnReload(func(res *config.LoadResult) {
		if err := lg.SetLevel(res.Config.Logging.Level); err != nil {
			logger.Warn("invalid log level", "level", res.Config.Logging.Level, "error", err)
		}
		watcher.update(res.Files)
	})

	if xb, ok := backend.(interface{ Connection() *x11.Connection }); ok {
		keys := hotkeys.NewHandler(xb.Connection(), loop, logger.With("component", "hotkeys"))
		bind := func(bindings map[string]string) {
			if err := keys.Bind(bindings); err != nil {
				logger.Warn("some key bindings failed", "error", err)
			}
			loop.SetHotkeyCount(keys.Bound())
		}
		bind(cfg.Bindings)
		loop.OnReload(func(res *config.LoadResult) { bind(res.Config.Bindings) })
		defer keys.Close()
	}

	go handleHangup(ctx, loop, logger)

	superCtx, stopSuper := context.WithCancel(ctx)
	superDone := super.ServeBackground(superCtx)

	go func() {
		select {
		case <-loop.Ready():
		case <-ctx.Done():
			return
		}
		sp := Spawner{Env: []string{runtimepath.SocketEnv + "=" + socket}, Logger: logger.With("component", "spawn")}
		sp.StartAll(cfg.SpawnAtStartup, opts.Command)
	}()

	logger.Info("scrolltile daemon started", "backend", string(backend.Kind()), "socket", socket, "config", path)
	loopErr := loop.Run(ctx)
	stopSuper()
	if err := <-superDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("supervisor stopped with error", "error", err)
	}
	logger.Info("scrolltile daemon stopped")
	if errors.Is(loopErr, context.Canceled) {
		return nil
	}
	return loopErr
}

func handleHangup(ctx context.Context, loop *Loop, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("received SIGHUP, reloading config")
			if _, err := loop.Reload(ctx); err != nil {
				logger.Warn("config reload failed", "error", err)
			}
		}
	}
}

const watcherStopTimeout = 2 * time.Second

// watcherService restarts the config watcher under the supervisor when a
// reload changes the included files.
type watcherService struct {
	super   *suture.Supervisor
	watcher *config.Watcher
	path    string
	logger  *slog.Logger

	mu    sync.Mutex
	files []string
	token suture.ServiceToken
}

func newWatcherService(super *suture.Supervisor, path string, files []string, onChange func(), logger *slog.Logger) *watcherService {
	files = watchedFiles(path, files)
	w := &watcherService{
		super:   super,
		watcher: config.NewWatcher(files, onChange, logger),
		path:    path,
		logger:  logger,
		files:   files,
	}
	w.token = Add(super, NewServiceFunc("config-watcher", w.watcher.Serve))
	return w
}

func (w *watcherService) update(files []string) {
	files = watchedFiles(w.path, files)
	w.mu.Lock()
	defer w.mu.Unlock()
	if slices.Equal(files, w.files) {
		return
	}
	w.files = files
	w.watcher.SetFiles(files)
	if err := w.super.RemoveAndWait(w.token, watcherStopTimeout); err != nil {
		w.logger.Warn("config watcher did not stop", "error", err)
	}
	w.token = Add(w.super, NewServiceFunc("config-watcher", w.watcher.Serve))
}

// watchedFiles always includes the main path so creating it later is seen.
func watchedFiles(path string, files []string) []string {
	out := []string{path}
	for _, f := range files {
		if f != path {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}
