package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lcalzada-xor/wifiradar/internal/adapters/fingerprint"
	"github.com/lcalzada-xor/wifiradar/internal/adapters/rpc"
	"github.com/lcalzada-xor/wifiradar/internal/adapters/scanner"
	"github.com/lcalzada-xor/wifiradar/internal/adapters/storage"
	"github.com/lcalzada-xor/wifiradar/internal/adapters/web"
	webserver "github.com/lcalzada-xor/wifiradar/internal/adapters/web/server"
	"github.com/lcalzada-xor/wifiradar/internal/config"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/analysis"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/auth"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/scan"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/tables"
	"github.com/lcalzada-xor/wifiradar/internal/telemetry"
)

const (
	dataDirPerm    = 0o750
	purgeInterval  = time.Hour
	purgeTimeout   = time.Minute
	defaultVersion = "dev"
)

// Pipeline is the scan stack without any server around it. The CLI uses it
// for one-shot scans; Application embeds it.
type Pipeline struct {
	Tables    *tables.Store
	Resolver  *fingerprint.Resolver
	Acquirer  *scanner.CommandAcquirer
	Discovery *scanner.Discovery
	Scanner   *scan.Service
	// OUIUpdater is nil when vendors come from the built-in table only.
	OUIUpdater *fingerprint.Updater

	vendorRepo fingerprint.VendorRepository
}

// NewPipeline wires tables, vendor resolution, the acquirer and the engine.
func NewPipeline(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	telemetry.InitMetrics()

	store := tables.NewStore(logger.With("component", "tables"))
	if cfg.Tables.Path != "" {
		// failures keep the built-in tables and are logged by the store
		_ = store.LoadFile(cfg.Tables.Path)
	}

	if cfg.OUI.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OUI.DBPath), dataDirPerm); err != nil {
			logger.Warn("Could not create OUI database directory", "path", cfg.OUI.DBPath, "error", err)
		}
	}
	resolver, repo := fingerprint.NewDefaultResolver(cfg.OUI.DBPath, cfg.OUI.CacheSize, logger.With("component", "oui"))
	var updater *fingerprint.Updater
	if store, ok := repo.(fingerprint.RegistryStore); ok {
		updater = fingerprint.NewUpdater(store, cfg.OUI.Source, cfg.OUI.MaxAge, logger.With("component", "oui"))
		updater.URL = cfg.OUI.URL
	}
	if !cfg.OUI.AutoUpdate {
		warnStaleOUI(repo, cfg.OUI.MaxAge, logger)
	}

	scfg := scannerConfig(cfg.Scanner)
	acquirer := scanner.NewCommandAcquirer(scfg, logger.With("component", "acquirer"))

	opts := []analysis.Option{analysis.WithLogger(logger.With("component", "analysis"))}
	if cfg.Scan.Jitter > 0 {
		opts = append(opts, analysis.WithNoise(analysis.NewUniformNoise(cfg.Scan.Jitter, uint64(time.Now().UnixNano()))))
	}
	engine := analysis.NewEngine(store, resolver, opts...)

	return &Pipeline{
		Tables:     store,
		Resolver:   resolver,
		Acquirer:   acquirer,
		Discovery:  scanner.NewDiscovery(scfg, logger.With("component", "discovery")),
		Scanner:    scan.NewService(acquirer, store, engine, logger.With("component", "scan")),
		OUIUpdater: updater,
		vendorRepo: repo,
	}
}

// Close releases the vendor repository.
func (p *Pipeline) Close() error {
	if p.vendorRepo == nil {
		return nil
	}
	return p.vendorRepo.Close()
}

func scannerConfig(c config.ScannerConfig) scanner.Config {
	return scanner.Config{
		IwPath:       c.IwPath,
		IwlistPath:   c.IwlistPath,
		IwconfigPath: c.IwconfigPath,
		UseSudo:      c.UseSudo,
		SudoPath:     c.SudoPath,
	}
}

func warnStaleOUI(repo fingerprint.VendorRepository, maxAge time.Duration, logger *slog.Logger) {
	st, ok := repo.(fingerprint.VendorStats)
	if !ok || maxAge <= 0 {
		return
	}
	stats, err := st.GetStats(context.Background())
	if err != nil {
		return
	}
	if stats.NeedsRefresh(time.Now(), maxAge) {
		logger.Warn("OUI database is stale, run 'wifiradar oui update' or set oui.auto_update",
			"entries", stats.TotalEntries, "last_updated", stats.LastUpdated)
	}
}

// Application holds the long-running components of the service.
type Application struct {
	Config *config.Config
	*Pipeline

	History   *storage.SQLiteAdapter // nil when storage is disabled
	Keys      *auth.KeyService       // nil when auth is disabled
	Sessions  *scan.SessionStore
	Scheduler *scan.Scheduler
	WS        *web.WSManager // nil when the API is disabled
	WebServer *webserver.Server
	RPC       *rpc.Server

	logger  *slog.Logger
	version string
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config, version string, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = defaultVersion
	}
	app := &Application{Config: cfg, logger: logger, version: version}

	if err := app.bootstrap(); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

func (app *Application) bootstrap() error {
	cfg := app.Config

	app.Pipeline = NewPipeline(cfg, app.logger)

	if err := app.initStorage(); err != nil {
		return err
	}
	if err := app.initAuth(); err != nil {
		return err
	}

	opts := []scan.SessionOption{
		scan.WithRetention(cfg.Scan.Retention),
		scan.WithSessionLogger(app.logger.With("component", "sessions")),
	}
	// the hub has no readers without the HTTP server
	if cfg.API.Enabled {
		app.WS = web.NewWSManager(cfg.API.CORSOrigins, app.logger.With("component", "ws"))
		opts = append(opts, scan.WithPublisher(app.WS))
	}
	if app.History != nil {
		opts = append(opts, scan.WithStorage(app.History))
	}
	app.Sessions = scan.NewSessionStore(app.Scanner, opts...)

	app.Scheduler = scan.NewScheduler(app.Sessions, app.logger.With("component", "scheduler"))
	for _, job := range cfg.Schedules {
		if _, err := app.Scheduler.Add(job); err != nil {
			return fmt.Errorf("schedule %q: %w", job.Name, err)
		}
	}

	if cfg.API.Enabled {
		app.initWebServer()
	}
	if cfg.GRPC.Enabled {
		app.RPC = rpc.NewServer(app.Scanner, app.logger.With("component", "grpc"))
		app.RPC.SetServing(app.Acquirer.Available())
	}
	return nil
}

func (app *Application) initStorage() error {
	sc := app.Config.Storage
	if !sc.Enabled {
		app.logger.Info("Scan history disabled")
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(sc.Path), dataDirPerm); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	history, err := storage.NewSQLiteAdapter(sc.Path)
	if err != nil {
		return fmt.Errorf("failed to open scan history: %w", err)
	}
	app.History = history
	return nil
}

func (app *Application) initAuth() error {
	ac := app.Config.Auth
	if !ac.Enabled {
		return nil
	}
	opts := []auth.Option{
		auth.WithLogger(app.logger.With("component", "auth")),
	}
	if ac.StaticKeyHash != "" {
		opts = append(opts, auth.WithStaticKeyHash(ac.StaticKeyHash))
	}
	var repo ports.KeyRepository
	if app.History != nil {
		repo = app.History
	}
	app.Keys = auth.NewKeyService(repo, opts...)
	if !app.Keys.Enabled() {
		return errors.New("auth is enabled but no key source is configured")
	}
	return nil
}

func (app *Application) initWebServer() {
	ac := app.Config.API
	deps := webserver.Deps{
		Version:    app.version,
		Sessions:   app.Sessions,
		Interfaces: app.Discovery,
		Vendors:    app.Resolver,
		Tables:     app.Tables,
		WS:         app.WS,
		Logger:     app.logger.With("component", "http"),
	}
	// interface fields stay nil, not typed-nil, when the component is off
	if app.History != nil {
		deps.History = app.History
	}
	if app.Keys != nil {
		deps.Auth = app.Keys
	}
	app.WebServer = webserver.NewServer(webserver.Config{
		Addr:              ac.Addr,
		CORSOrigins:       ac.CORSOrigins,
		RateLimitRequests: ac.RateLimitRequests,
		RateLimitWindow:   ac.RateLimitWindow,
	}, deps)
}

// Run starts every enabled component and blocks until ctx is done or one of
// them fails.
func (app *Application) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return app.Sessions.Run(ctx) })
	g.Go(func() error { return app.Scheduler.Run(ctx) })

	if app.Config.Tables.Path != "" && app.Config.Tables.Watch {
		g.Go(func() error {
			if err := app.Tables.Watch(ctx, app.Config.Tables.Path, app.Config.Tables.WatchDelay); err != nil {
				// reloads are optional; the service keeps running on the loaded tables
				app.logger.Warn("Tables watcher stopped", "error", err)
			}
			return nil
		})
	}
	if app.Config.OUI.AutoUpdate && app.OUIUpdater != nil {
		g.Go(func() error { return app.OUIUpdater.Run(ctx, app.Config.OUI.UpdateInterval) })
	}
	if app.History != nil && app.Config.Storage.Retention > 0 {
		g.Go(func() error { return app.runPurge(ctx) })
	}
	if app.WebServer != nil {
		g.Go(func() error { return app.WebServer.Run(ctx) })
	}
	if app.RPC != nil {
		g.Go(func() error { return app.RPC.Serve(ctx, app.Config.GRPC.Addr) })
	}

	app.logger.Info("wifiradar started",
		"version", app.version,
		"api", app.WebServer != nil,
		"grpc", app.RPC != nil,
		"history", app.History != nil,
		"schedules", len(app.Config.Schedules),
		"oui_auto_update", app.Config.OUI.AutoUpdate && app.OUIUpdater != nil,
	)
	return g.Wait()
}

// runPurge drops stored scans older than the retention period.
func (app *Application) runPurge(ctx context.Context) error {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		app.purgeOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (app *Application) purgeOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()
	cutoff := time.Now().Add(-app.Config.Storage.Retention)
	n, err := app.History.PurgeBefore(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			app.logger.Error("Failed to purge scan history", "error", err)
		}
		return
	}
	if n > 0 {
		app.logger.Info("Purged scan history", "scans", n, "before", cutoff)
	}
}

// Close stops running scans and releases storage.
func (app *Application) Close() error {
	var errs []error
	if app.Sessions != nil {
		app.Sessions.Close()
	}
	if app.History != nil {
		errs = append(errs, app.History.Close())
	}
	if app.Pipeline != nil {
		errs = append(errs, app.Pipeline.Close())
	}
	return errors.Join(errs...)
}

// TraceOutput opens the trace destination. Empty means stdout.
func TraceOutput(path string) (io.Writer, io.Closer, error) {
	if path == "" {
		return os.Stdout, io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, f, nil
}
