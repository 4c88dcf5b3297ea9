package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"podbench/internal/catalog"
	"podbench/internal/config"
	"podbench/internal/daemon"
	"podbench/internal/events"
	"podbench/internal/layout"
	"podbench/internal/logging"
	"podbench/internal/pipeline"
	"podbench/internal/preflight"
	"podbench/internal/processing"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the podbench daemon runtime loop and blocks until the context
// is cancelled or the process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("podbench-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update podbench.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "podbench-*.log", Exclude: []string{logPath}},
	)

	if err := runPreflight(logger, cfg); err != nil {
		return err
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "podbenchd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := catalog.Open(cfg)
	if err != nil {
		logger.Error("open catalog store", logging.Error(err))
		return err
	}
	defer store.Close()

	manager := layout.NewManager(cfg.Paths.DataDir)
	adapter := processing.NewCommandAdapter(cfg.Processing.Command)
	hub := events.NewHub(logger)
	pipe := pipeline.New(store, manager, adapter, hub, logger, cfg.StageTimeout())
	defer pipe.Close()

	d, err := daemon.New(cfg, store, manager, pipe, hub, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("podbench daemon shutting down")
	return nil
}

// runPreflight logs every startup check and aborts on fatal failures. The
// toolchain check only warns: the catalog keeps serving reads without it.
func runPreflight(logger *slog.Logger, cfg *config.Config) error {
	for _, result := range preflight.RunAll(cfg) {
		attrs := []logging.Attr{
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		}
		switch {
		case result.Passed:
			logger.Debug("preflight check passed", logging.Args(attrs...)...)
		case preflight.Fatal(result):
			logger.Error("preflight check failed", logging.Args(attrs...)...)
			return fmt.Errorf("preflight: %s: %s", result.Name, result.Detail)
		default:
			logger.Warn("preflight check failed", logging.Args(attrs...)...)
		}
	}
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "podbench.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
