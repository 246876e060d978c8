package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Spawner starts the processes the daemon launches on behalf of the user.
// Children inherit the environment plus Env.
type Spawner struct {
	Env    []string
	Logger *slog.Logger
}

// Shell runs line with sh -c, the way spawn_at_startup entries are written.
func (s Spawner) Shell(line string) error {
	return s.Command([]string{"/bin/sh", "-c", line})
}

// Command starts argv without waiting for it. Exit status is logged.
func (s Spawner) Command(argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), s.Env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %q: %w", argv[0], err)
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("spawned", "command", argv, "pid", cmd.Process.Pid)
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Warn("spawned command exited", "command", argv, "error", err)
		}
	}()
	return nil
}

// StartAll launches every startup command, then the trailing command.
// Failures are logged and do not stop the rest.
func (s Spawner) StartAll(startup []string, trailing []string) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, line := range startup {
		if err := s.Shell(line); err != nil {
			logger.Warn("spawn_at_startup failed", "command", line, "error", err)
		}
	}
	if len(trailing) > 0 {
		if err := s.Command(trailing); err != nil {
			logger.Warn("command failed to start", "command", trailing, "error", err)
		}
	}
}
