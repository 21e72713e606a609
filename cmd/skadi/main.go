package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hylla/skadi/internal/adapters/storage/remote"
	"github.com/hylla/skadi/internal/adapters/storage/sqlite"
	"github.com/hylla/skadi/internal/app"
	"github.com/hylla/skadi/internal/config"
	"github.com/hylla/skadi/internal/platform"
	"github.com/hylla/skadi/internal/tui"
)

// version is set at build time.
var version = "dev"

// program is the part of tea.Program the TUI flow needs.
type program interface {
	Run() (tea.Model, error)
}

var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(ctx, root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// run executes the command tree without fang's styled output.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	remoteURL  string
	envFile    string
	devMode    bool
	listID     string

	stdout io.Writer
	stderr io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("SKADI_DEV_MODE"); ok {
		defaultDevMode = envDev
	}

	root := &cobra.Command{
		Use:           "skadi",
		Short:         "Track job applications on a kanban board",
		Long:          "skadi keeps job applications on a drag-and-drop kanban board in your terminal.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnvFile(opts.envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML (env SKADI_CONFIG)")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database (env SKADI_DB_PATH)")
	flags.StringVar(&opts.remoteURL, "remote", "", "base URL of a skadi server to use instead of the local database")
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file to load before resolving settings (default .env)")
	flags.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (skadi-dev)")
	root.Flags().StringVar(&opts.listID, "list", "", "job list to open on startup")

	root.AddCommand(
		newServeCommand(opts),
		newPathsCommand(opts),
		newListsCommand(opts),
		newExportCommand(opts),
	)
	return root
}

// loadEnvFile loads dotenv values without overriding variables already set. A missing default .env
// is fine; a missing explicit --env-file is not.
func loadEnvFile(path string) error {
	if strings.TrimSpace(path) != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %q: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// runtimeEnv is everything a command needs once flags, env and config are resolved.
type runtimeEnv struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	store      app.Store
	remote     bool
	closers    []func() error
}

// openRuntime resolves paths, config and logging for command, then opens the store. allowRemote
// lets the store be a skadi server instead of the local database.
func openRuntime(opts *rootOptions, command string, allowRemote bool) (*runtimeEnv, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{DevMode: opts.devMode})
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("SKADI_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("SKADI_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	if remoteURL := strings.TrimSpace(opts.remoteURL); remoteURL != "" {
		cfg.Remote.URL = remoteURL
	} else if envURL := strings.TrimSpace(os.Getenv("SKADI_REMOTE_URL")); envURL != "" {
		cfg.Remote.URL = envURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logDir := ""
	switch {
	case opts.devMode:
		logDir = cfg.Logging.DevFile.Dir
	case command == "tui":
		// The board owns the terminal, so TUI runs always log to a file.
		logDir = paths.LogDir
	}
	logger, err := newRuntimeLogger(opts.stderr, platform.AppName, cfg.LogLevel(), cfg.Logging.DevFile.Enabled, logDir, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		logger.SetConsoleEnabled(false)
	}

	rt := &runtimeEnv{
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
		closers:    []func() error{logger.Close},
	}
	logger.Info("startup configuration resolved", "command", command, "dev_mode", opts.devMode)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if path := logger.FilePath(); path != "" {
		logger.Info("file logging enabled", "path", path)
	}

	if allowRemote && cfg.Remote.URL != "" {
		client, err := remote.New(cfg.Remote.URL, nil)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("configure remote store: %w", err)
		}
		logger.Info("using remote store", "url", cfg.Remote.URL)
		rt.store = client
		rt.remote = true
		return rt, nil
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = rt.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	rt.store = repo
	rt.closers = append([]func() error{repo.Close}, rt.closers...)
	return rt, nil
}

// deps wires the store, identity and logger for the app layer.
func (r *runtimeEnv) deps(metrics app.Metrics) app.Deps {
	return app.Deps{
		Store:    r.store,
		Identity: app.NewLocalIdentity(r.cfg.Identity.DisplayName, nil),
		Logger:   r.logger,
		Metrics:  metrics,
		Clock:    time.Now,
	}
}

func (r *runtimeEnv) service(deps app.Deps) *app.Service {
	return app.NewService(deps, app.ServiceConfig{DefaultStatuses: r.cfg.Board.Statuses})
}

// Close releases the store, then the log sinks.
func (r *runtimeEnv) Close() error {
	var errs []error
	for _, closeFn := range r.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func runTUI(ctx context.Context, opts *rootOptions) error {
	rt, err := openRuntime(opts, "tui", true)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			_, _ = fmt.Fprintf(opts.stderr, "warning: close runtime: %v\n", closeErr)
		}
	}()

	m := tui.NewModel(
		rt.deps(nil),
		tui.WithContext(ctx),
		tui.WithDefaultStatuses(rt.cfg.Board.Statuses),
		tui.WithRebalanceDelay(rt.cfg.RebalanceDelay()),
		tui.WithInitialList(opts.listID),
	)
	rt.logger.Info("starting tui program loop", "remote", rt.remote)
	_, err = programFactory(m).Run()
	m.Wait()
	if err != nil {
		rt.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	rt.logger.Info("command flow complete", "command", "tui")
	return nil
}

func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
