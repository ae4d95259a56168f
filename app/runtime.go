package app

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/ayoisaiah/steadfast/cooldown"
	"github.com/ayoisaiah/steadfast/internal/config"
	"github.com/ayoisaiah/steadfast/internal/logging"
	"github.com/ayoisaiah/steadfast/internal/osutil"
	"github.com/ayoisaiah/steadfast/internal/pathutil"
	"github.com/ayoisaiah/steadfast/internal/ui"
	"github.com/ayoisaiah/steadfast/pause"
	"github.com/ayoisaiah/steadfast/store"
)

// now is the clock used by every command.
var now = time.Now

// runtime holds the components shared by a single command invocation.
type runtime struct {
	cfg    *config.Config
	db     store.DB
	orch   *pause.Orchestrator
	logger *slog.Logger
	logs   io.Closer
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// configPath resolves the config file from --config or the XDG location.
func configPath(ctx *cli.Context) (string, error) {
	if p := ctx.String("config"); p != "" {
		return p, nil
	}

	if err := pathutil.Initialize(); err != nil {
		return "", err
	}

	return pathutil.ConfigFilePath(), nil
}

// loadConfig builds the configuration for the current command.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	path, err := configPath(ctx)
	if err != nil {
		return nil, err
	}

	var opts []config.Option

	if isInteractive() {
		opts = append(opts, config.WithPromptConfig(path))
	}

	opts = append(
		opts,
		config.WithViperConfig(path),
		config.WithCLIConfig(ctx, now()),
	)

	cfg, err := config.New(opts...)
	if err != nil {
		return nil, err
	}

	cfg.CLI.ConfigPath = path

	return cfg, nil
}

// setup loads the configuration and opens the store.
func setup(ctx *cli.Context) (*runtime, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	ui.DarkTheme = cfg.Display.DarkTheme

	logPath := cfg.Log.Path
	if logPath == "" {
		if err = pathutil.Initialize(); err != nil {
			return nil, err
		}

		logPath = pathutil.LogFilePath()
	}

	level, _ := cfg.LogLevel()

	logger, logs, err := logging.New(logging.Config{
		Path:       logPath,
		Level:      level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)

	db, err := openStore(cfg)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	guard := cooldown.New(
		db,
		cfg.Pause.Cooldown,
		cooldown.WithClock(now),
		cooldown.WithLogger(logging.WithComponent(logger, "cooldown")),
	)

	orch := pause.New(
		db,
		guard,
		pause.WithClock(now),
		pause.WithLogger(logging.WithComponent(logger, "pause")),
	)

	return &runtime{
		cfg:    cfg,
		db:     db,
		orch:   orch,
		logger: logger,
		logs:   logs,
	}, nil
}

func openStore(cfg *config.Config) (store.DB, error) {
	path := cfg.Store.Path

	if path == "" && cfg.Store.Backend != store.BackendMemory {
		if err := pathutil.Initialize(); err != nil {
			return nil, err
		}

		path = pathutil.DBFilePath(cfg.Store.Backend)
	}

	if path != "" {
		err := os.MkdirAll(filepath.Dir(path), osutil.DirPermission)
		if err != nil {
			return nil, err
		}
	}

	return store.Open(cfg.Store.Backend, path)
}

// Close releases the store and flushes the log file.
func (r *runtime) Close() error {
	return errors.Join(r.db.Close(), r.logs.Close())
}
