package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/epg-sync/epgctl/internal/formatter"
	"github.com/epg-sync/epgctl/internal/services"
	"github.com/epg-sync/epgctl/internal/session"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/epg-sync/epgctl/internal/storage"
	"github.com/epg-sync/epgctl/internal/synclog"
	"github.com/epg-sync/epgctl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	client     *services.Client
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader

	db       *sql.DB
	store    storage.Storage
	session  *session.Store
	syncLog  *synclog.Log
	timezone string
	location *time.Location
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     *services.Client
	Storage    storage.Storage // Replaces the SQLite store opened from the config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Client == nil {
		clientOpts := services.OptionsFromConfig(opts.Config.API)
		clientOpts.Transport = opts.HTTPClient.Transport
		clientOpts.Logger = opts.Logger
		opts.Client = services.NewClient(clientOpts)
	}

	timezone := shared.LocalTimezone(opts.Config.Display.Timezone)
	location, err := time.LoadLocation(timezone)
	if err != nil {
		location = time.UTC
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		client:     opts.Client,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		store:      opts.Storage,
		timezone:   timezone,
		location:   location,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, channelsCommand, mappingsCommand, programsCommand,
		syncCommand, exportCommand, apiCommand, storageCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the logger used by the runner and the API client.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.client.SetLogger(logger)
}

// Close releases the database opened by [Runner.storage], if any.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// storage opens the durable client store on first use and runs pending migrations.
func (r *Runner) storage() (storage.Storage, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.NewDatabase(r.config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}
	shared.ConfigureDatabase(db, r.config.Storage.MaxOpenConns, r.config.Storage.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.store = storage.NewSQLiteStore(db)
	return r.store, nil
}

// restore opens storage and hydrates the session and sync log, once per process.
func (r *Runner) restore() error {
	if r.session != nil {
		return nil
	}

	store, err := r.storage()
	if err != nil {
		return err
	}

	r.session = session.NewStore(r.client, store, r.logger)
	r.session.Hydrate()
	r.syncLog = synclog.New(store, r.logger)
	r.syncLog.Load()
	return nil
}

// requireAuth restores the session and fails unless a user is logged in.
func (r *Runner) requireAuth() error {
	if err := r.restore(); err != nil {
		return err
	}
	if err := r.session.RequireAuth(); err != nil {
		return fmt.Errorf("%w: run 'epgctl auth login' first", err)
	}
	return nil
}

func (r *Runner) syncer() *tasks.Syncer {
	return tasks.NewSyncer(r.client, r.syncLog, r.location, r.logger)
}

// render writes v in the format named by the command's --format flag.
func (r *Runner) render(cmd *cli.Command, v any, tableFn func() string, csvFn func() ([]byte, error)) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	return formatter.Write(r.output, f, v, tableFn, csvFn)
}

// tableOutput reports whether the command renders for humans rather than machines.
func tableOutput(cmd *cli.Command) bool {
	f, err := formatter.ParseFormat(cmd.String("format"))
	return err == nil && f == formatter.FormatTable
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
