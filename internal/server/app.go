// Package server initializes and runs the note-access application server.
// It opens the database, applies migrations, wires the service graph, and
// runs the HTTP endpoint until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/studyvault/noteaccess/internal/logging"
	"github.com/studyvault/noteaccess/internal/server/config"
	"github.com/studyvault/noteaccess/internal/server/httpapi"
	"github.com/studyvault/noteaccess/internal/server/objstore"
	"github.com/studyvault/noteaccess/internal/server/repositories/repomanager"
	"github.com/studyvault/noteaccess/internal/server/services"
	"github.com/studyvault/noteaccess/internal/signer"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	sessionService   *services.SessionService
	streamService    *services.StreamService
	watermarkService *services.WatermarkService
	adminService     *services.AdminService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	// An unset watermark secret must stop the server at startup, never fall
	// back to a default.
	sg, err := signer.New(cfg.WatermarkSecret)
	if err != nil {
		return nil, fmt.Errorf("signer init error: %w", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	store, err := objstore.NewS3Store(ctx, objstore.Config{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		AccessKey:    cfg.S3RootUser,
		SecretKey:    cfg.S3RootPassword,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	recorder := services.NewSignalRecorder(db, repos, logger)
	entitlements := services.NewSubscriptionEntitlements(db, repos)
	policy := services.NewAccessPolicy(db, repos, sg, recorder, cfg, logger)
	detector := services.NewAnomalyDetector(db, repos, recorder, logger)

	return &App{
		config:           cfg,
		logger:           logger,
		db:               db,
		sessionService:   services.NewSessionService(db, repos, sg, entitlements, cfg, logger),
		streamService:    services.NewStreamService(db, repos, policy, store, detector, logger),
		watermarkService: services.NewWatermarkService(db, repos, policy, sg, logger),
		adminService:     services.NewAdminService(db, repos, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewHTTPServer(app.config.EndpointAddr, app.logger,
		app.sessionService, app.streamService, app.watermarkService, app.adminService,
		app.db, app.config.SecretKey, app.config.AdminToken)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
