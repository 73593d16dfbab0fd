package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/evanschultz/lanes/internal/adapters/storage/sqlite"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/config"
	"github.com/evanschultz/lanes/internal/platform"
	"github.com/evanschultz/lanes/internal/tui"
)

var version = "dev"

type program interface {
	Run() (tea.Model, error)
}

var programFactory = func(ctx context.Context, m tea.Model) program {
	return tea.NewProgram(m, tea.WithContext(ctx))
}

func main() {
	// fang prints the styled error itself.
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run builds the command tree and executes args against it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("LANES_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultApp := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("LANES_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	root := &cobra.Command{
		Use:           "lanes",
		Short:         "A kanban board for the terminal",
		Long:          "lanes - a kanban board for the terminal with mouse drag and keyboard moves.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", defaultApp, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		pathsCmd(opts),
		configCmd(opts),
		exportCmd(opts),
		importCmd(opts),
		seedCmd(opts),
		activityCmd(opts),
		columnsCmd(opts),
	)
	return root
}

// runtimeEnv is the resolved location of everything a command touches.
type runtimeEnv struct {
	appName      string
	devMode      bool
	paths        platform.Paths
	configPath   string
	dbPath       string
	dbOverridden bool
}

// resolve applies flag, then env, then platform defaults.
func (o *rootOptions) resolve() (runtimeEnv, error) {
	env := runtimeEnv{
		appName: strings.TrimSpace(o.appName),
		devMode: o.devMode,
	}
	if env.appName == "" {
		env.appName = platform.DefaultAppName
	}
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: env.appName,
		DevMode: env.devMode,
	})
	if err != nil {
		return runtimeEnv{}, err
	}
	env.paths = paths

	env.configPath = strings.TrimSpace(o.configPath)
	if env.configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("LANES_CONFIG")); envPath != "" {
			env.configPath = envPath
		} else {
			env.configPath = paths.ConfigPath
		}
	}
	env.dbPath = strings.TrimSpace(o.dbPath)
	env.dbOverridden = env.dbPath != ""
	if !env.dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("LANES_DB_PATH")); envPath != "" {
			env.dbPath = envPath
			env.dbOverridden = true
		} else {
			env.dbPath = paths.DBPath
		}
	}
	return env, nil
}

// loadConfig reads the config file over the defaults for env.
func (env runtimeEnv) loadConfig() (config.Config, error) {
	cfg, err := config.Load(env.configPath, config.Default(env.dbPath))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config %q: %w", env.configPath, err)
	}
	if env.dbOverridden {
		cfg.Database.Path = env.dbPath
	}
	return cfg, nil
}

// session is an opened store plus the service and logger built on it.
type session struct {
	cfg    config.Config
	logger *runtimeLogger
	repo   *sqlite.Repository
	svc    *app.Service
}

// openSession resolves config, logging, and storage for one command.
// Console logging is muted when console is false.
func openSession(o *rootOptions, command string, console bool) (*session, error) {
	env, err := o.resolve()
	if err != nil {
		return nil, err
	}
	cfg, err := env.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newRuntimeLogger(o.stderr, env.appName, env.devMode, cfg.Logging, env.paths.LogDir, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.SetConsoleEnabled(console)

	logger.Info("startup configuration resolved", "app", env.appName, "dev_mode", env.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", env.configPath, "data_dir", env.paths.DataDir, "db_path", env.dbPath)
	logger.Info("configuration loaded", "config_path", env.configPath, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	columns, err := cfg.DomainColumns()
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("board columns: %w", err)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")

	svc := app.NewService(repo, time.Now, logger, app.ServiceConfig{
		BoardID:        cfg.Board.ID,
		BoardName:      cfg.Board.Name,
		DefaultColumns: columns,
	})
	logger.Debug("application service initialized", "board_id", svc.BoardID(), "columns", len(columns))
	return &session{cfg: cfg, logger: logger, repo: repo, svc: svc}, nil
}

// Close releases the store and the dev log file.
func (s *session) Close(stderr io.Writer) {
	if err := s.repo.Close(); err != nil {
		s.logger.Warn("sqlite close failed", "db_path", s.cfg.Database.Path, "err", err)
	}
	if err := s.logger.Close(); err != nil && s.logger.shouldLogToSink(s.logger.consoleSink) {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

func runTUI(ctx context.Context, o *rootOptions) error {
	// Runtime logs stay in the dev-file sink while the board owns the terminal.
	s, err := openSession(o, "tui", false)
	if err != nil {
		return err
	}
	defer s.Close(o.stderr)

	boardOpts, err := boardOptions(s.cfg.Interaction)
	if err != nil {
		return err
	}
	m := tui.NewModel(s.svc, tuiOptions(s.cfg, boardOpts)...)
	s.logger.Info("starting tui program loop", "board_id", s.svc.BoardID())
	if _, err := programFactory(ctx, m).Run(); err != nil {
		s.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	s.logger.Info("command flow complete", "command", "tui")
	return nil
}

// boardOptions maps interaction settings onto board options.
func boardOptions(cfg config.InteractionConfig) ([]app.Option, error) {
	policy, err := app.ParseBlurPolicy(cfg.BlurPolicy)
	if err != nil {
		return nil, err
	}
	return []app.Option{
		app.WithBlurPolicy(policy),
		app.WithCancelKey(cfg.CancelKey),
		app.WithNotifyDuplicate(cfg.NotifyDuplicate),
	}, nil
}

func tuiOptions(cfg config.Config, boardOpts []app.Option) []tui.Option {
	return []tui.Option{
		tui.WithTitle(cfg.Board.Name),
		tui.WithItemHeight(cfg.Interaction.ItemHeight),
		tui.WithShowWIPWarnings(cfg.Board.ShowWIPWarnings),
		tui.WithTaskFieldConfig(tui.TaskFieldConfig{
			ShowPriority:    cfg.TaskFields.ShowPriority,
			ShowDueDate:     cfg.TaskFields.ShowDueDate,
			ShowTags:        cfg.TaskFields.ShowTags,
			ShowAssignee:    cfg.TaskFields.ShowAssignee,
			ShowDescription: cfg.TaskFields.ShowDescription,
		}),
		tui.WithKeyConfig(tui.KeyConfig{
			PickUp:    cfg.Keys.PickUp,
			Drop:      cfg.Keys.Drop,
			NewTask:   cfg.Keys.NewTask,
			Duplicate: cfg.Keys.Duplicate,
			Delete:    cfg.Keys.Delete,
			Edit:      cfg.Keys.Edit,
			Filter:    cfg.Keys.Filter,
			Copy:      cfg.Keys.Copy,
		}),
		tui.WithBoardOptions(boardOpts...),
	}
}

func pathsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved config, data, and log locations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			env, err := o.resolve()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(o.stdout, "app: %s\n", env.appName)
			_, _ = fmt.Fprintf(o.stdout, "dev_mode: %t\n", env.devMode)
			_, _ = fmt.Fprintf(o.stdout, "config: %s\n", env.configPath)
			_, _ = fmt.Fprintf(o.stdout, "data_dir: %s\n", env.paths.DataDir)
			_, _ = fmt.Fprintf(o.stdout, "db: %s\n", env.dbPath)
			_, _ = fmt.Fprintf(o.stdout, "log_dir: %s\n", env.paths.LogDir)
			return nil
		},
	}
}

func configCmd(o *rootOptions) *cobra.Command {
	var (
		write bool
		force bool
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			env, err := o.resolve()
			if err != nil {
				return err
			}
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			if !write {
				encoded, err := toml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("encode config: %w", err)
				}
				_, err = o.stdout.Write(encoded)
				return err
			}
			if _, err := os.Stat(env.configPath); err == nil && !force {
				return fmt.Errorf("config %q already exists; pass --force to overwrite", env.configPath)
			}
			if err := config.Save(env.configPath, cfg); err != nil {
				return fmt.Errorf("save config %q: %w", env.configPath, err)
			}
			_, _ = fmt.Fprintf(o.stdout, "wrote %s\n", env.configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write the effective config to the config path")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func exportCmd(o *rootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the board as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(o, "export", true)
			if err != nil {
				return err
			}
			defer s.Close(o.stderr)
			if err := runExport(cmd.Context(), s, outPath, o.stdout); err != nil {
				s.logger.Error("command flow failed", "command", "export", "err", err)
				return fmt.Errorf("run export command: %w", err)
			}
			s.logger.Info("command flow complete", "command", "export")
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

func runExport(ctx context.Context, s *session, outPath string, stdout io.Writer) error {
	// Opening seeds a first-run board so export always has columns to write.
	if _, err := s.svc.OpenBoard(ctx); err != nil {
		return fmt.Errorf("open board: %w", err)
	}
	snap, err := s.svc.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	if outPath == "-" {
		return snap.WriteJSON(stdout)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := snap.WriteJSON(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write export file: %w", err)
	}
	return f.Close()
}

func importCmd(o *rootOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the board with a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			s, err := openSession(o, "import", true)
			if err != nil {
				return err
			}
			defer s.Close(o.stderr)

			f, err := os.Open(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			defer func() { _ = f.Close() }()
			snap, err := app.ReadSnapshot(f)
			if err != nil {
				return fmt.Errorf("run import command: %w", err)
			}
			if err := s.svc.ImportSnapshot(cmd.Context(), snap); err != nil {
				s.logger.Error("command flow failed", "command", "import", "err", err)
				return fmt.Errorf("run import command: %w", err)
			}
			_, _ = fmt.Fprintf(o.stdout, "imported %d columns and %d tasks into board %q\n", len(snap.Columns), len(snap.Tasks), s.svc.BoardID())
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

func seedCmd(o *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the board with sample tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(o, "seed", true)
			if err != nil {
				return err
			}
			defer s.Close(o.stderr)

			rec, err := s.repo.LoadBoard(cmd.Context(), s.svc.BoardID())
			switch {
			case errors.Is(err, app.ErrNotFound):
			case err != nil:
				return fmt.Errorf("load board: %w", err)
			case len(rec.Tasks) > 0 && !force:
				return fmt.Errorf("board %q already has %d tasks; pass --force to replace them", rec.ID, len(rec.Tasks))
			}
			seeded, err := s.svc.SeedDemo(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(o.stdout, "seeded board %q with %d tasks\n", seeded.ID, len(seeded.Tasks))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace existing tasks")
	return cmd
}

func activityCmd(o *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Print recent board changes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			s, err := openSession(o, "activity", true)
			if err != nil {
				return err
			}
			defer s.Close(o.stderr)

			events, err := s.svc.ListChangeEvents(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list change events: %w", err)
			}
			for _, event := range events {
				line := fmt.Sprintf("%s  %-9s %s", event.OccurredAt.UTC().Format(time.RFC3339), event.Operation, event.TaskID)
				for _, k := range slices.Sorted(maps.Keys(event.Metadata)) {
					line += " " + k + "=" + strconv.Quote(event.Metadata[k])
				}
				_, _ = fmt.Fprintln(o.stdout, strings.TrimSpace(line))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events to print")
	return cmd
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

// runtimeLogger fans runtime events out to the console and the optional
// dev log file.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks. A blank dev_file.dir falls
// back to fallbackDir.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, fallbackDir string, now func() time.Time) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}
	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})
	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || !cfg.DevFile.Enabled {
		return logger, nil
	}
	devLogPath, err := devLogFilePath(cfg.DevFile.Dir, fallbackDir, appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	err := l.closeFile()
	l.closeFile = nil
	return err
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	return sink != l.consoleSink || l.consoleEnabled
}

func (l *runtimeLogger) each(fn func(*charmLog.Logger)) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if l.shouldLogToSink(sink) {
			fn(sink)
		}
	}
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg any, keyvals ...any) {
	l.each(func(sink *charmLog.Logger) { sink.Debug(msg, keyvals...) })
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg any, keyvals ...any) {
	l.each(func(sink *charmLog.Logger) { sink.Info(msg, keyvals...) })
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg any, keyvals ...any) {
	l.each(func(sink *charmLog.Logger) { sink.Warn(msg, keyvals...) })
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg any, keyvals ...any) {
	l.each(func(sink *charmLog.Logger) { sink.Error(msg, keyvals...) })
}

// devLogFilePath resolves a workspace-local dev log file for the current day.
// Relative dirs are anchored at the nearest workspace root.
func devLogFilePath(configDir, fallbackDir, appName string, now time.Time) (string, error) {
	dir := strings.TrimSpace(configDir)
	if dir == "" {
		dir = fallbackDir
	}
	if strings.TrimSpace(dir) == "" {
		dir = ".lanes/log"
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working dir: %w", err)
	}
	baseDir, err := platform.ResolveDir(dir, workspaceRootFrom(cwd))
	if err != nil {
		return "", err
	}
	fileName := fmt.Sprintf("%s-%s.log", sanitizeLogFileStem(appName), now.Format("20060102"))
	return filepath.Join(baseDir, fileName), nil
}

// workspaceRootFrom walks up to the nearest go.mod or .git directory.
func workspaceRootFrom(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	if start == "" {
		return "."
	}
	dir := start
	for {
		if hasWorkspaceMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

func hasWorkspaceMarker(dir string) bool {
	for _, marker := range []string{"go.mod", ".git"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// sanitizeLogFileStem normalizes app names into safe file-name segments.
func sanitizeLogFileStem(appName string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem := strings.Trim(replacer.Replace(strings.TrimSpace(appName)), "-")
	if stem == "" {
		return platform.DefaultAppName
	}
	return stem
}
