package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/controller"
	"marketplace/internal/filestore"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"
	"marketplace/internal/repository"
	"marketplace/internal/router"
	"marketplace/internal/service"

	"github.com/sirupsen/logrus"
)

type App struct {
	repo       *repository.Repository
	service    *service.Service
	controller *controller.Controller
	sessions   *auth.Sessions
	metrics    *metrics.Metrics
	stopSig    chan os.Signal
	cfg        *config.Config
	log        *logrus.Entry

	Done chan struct{}
}

type option func(*App)

func WithConfig(cfg *config.Config) option {
	return func(app *App) {
		app.cfg = cfg
	}
}

func NewApp(opts ...option) (*App, error) {
	var err error

	app := &App{
		stopSig: make(chan os.Signal, 2),
		Done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.cfg == nil {
		cfg, err := config.NewConfig()
		if err != nil {
			return nil, err
		}
		app.cfg = cfg
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	app.log = logger.NewSublogger("app")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ConnectTimeout+5*time.Second)
	defer cancel()

	app.repo, err = repository.NewRepository(ctx, nil, &app.cfg.PostgresConfig)
	if err != nil {
		return nil, err
	}

	files, err := filestore.NewLocal(app.cfg.UploadsDir)
	if err != nil {
		app.repo.Close()
		return nil, err
	}

	app.metrics = metrics.New()
	app.sessions = auth.NewSessions(app.cfg.SessionConfig)
	app.service = service.NewService(app.repo, files, service.WithEventRecorder(app.metrics))
	app.controller = controller.NewController(app.service, app.sessions, app.cfg.MaxUploadSize)

	return app, nil
}

func (app *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		signal.Notify(app.stopSig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		sig := <-app.stopSig
		app.log.Infof("Received signal: %s", sig)
		cancel()
	}()

	server := http.Server{
		Addr:         app.cfg.ServerAddress,
		Handler:      router.NewRouter(app.controller, app.sessions, app.metrics),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Error("Http server error")
		}
	}()

	app.log.Infof("Server started at %s, listening for connections...", app.cfg.ServerAddress)
	<-ctx.Done()

	timeout, tcancel := context.WithTimeout(context.Background(), time.Second*10)
	defer tcancel()
	app.log.Info("Shutting down http server...")
	server.Shutdown(timeout)

	app.log.Info("Closing repository...")
	err := app.repo.Close()
	if err != nil {
		app.log.WithError(err).Error("Repository closing error")
	}

	close(app.Done)
	app.log.Info("Exiting app.")
}
