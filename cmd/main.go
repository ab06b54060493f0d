package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"deskmate/internal/api"
	"deskmate/internal/config"
	"deskmate/internal/export"
	fileutil "deskmate/internal/file"
	"deskmate/internal/task"
	"deskmate/internal/window"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load("config.yml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if err := fileutil.EnsureDir(cfg.DataDir); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("ensure data dir")
	}

	windows := buildWindowManager(cfg)
	tracker := buildTracker(cfg)
	exporter := buildExporter(cfg)
	runner := task.NewRunner(tracker, windows, exporter, cfg.MaxConcurrentTasks)

	router := setupRouter()
	wireAPI(router, windows, tracker, runner, exporter, cfg)

	baseCtx, baseCancel := context.WithCancel(context.Background())
	runner.SetBaseContext(baseCtx)

	const (
		readHeaderTimeout = 5 * time.Second
		shutdownTimeout   = 10 * time.Second
	)

	srv := newHTTPServer(cfg.Port, router, readHeaderTimeout)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdownSignal()

	gracefulShutdown(srv, baseCancel, runner, windows, shutdownTimeout)
}

func setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(api.ZerologLogger())
	return r
}

func buildWindowManager(cfg config.Config) *window.Manager {
	wm := window.NewManagerWithOptions(window.Options{
		DataDir:       cfg.DataDir,
		Viewport:      window.Size{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height},
		SnapThreshold: cfg.SnapThreshold,
		DefaultSize:   window.Size{Width: cfg.WindowWidth, Height: cfg.WindowHeight},
		DefaultMin:    window.Size{Width: cfg.MinWindowWidth, Height: cfg.MinWindowHeight},
	})
	if err := wm.LoadLayout(context.Background()); err != nil {
		log.Warn().Err(err).Msg("restoring window layout failed")
	}
	return wm
}

func buildTracker(cfg config.Config) *task.Tracker {
	tr := task.NewTrackerWithOptions(task.Options{DataDir: cfg.DataDir})
	if err := tr.LoadFromDisk(); err != nil {
		log.Warn().Err(err).Msg("restoring task states failed")
	}
	return tr
}

func buildExporter(cfg config.Config) *export.Exporter {
	platform := &export.LocalPlatform{
		Native:       os.Getenv("DESKMATE_NATIVE") != "",
		DocumentsDir: filepath.Join(cfg.DataDir, "documents"),
	}
	return export.NewExporter(platform, export.Options{
		StageDir:    filepath.Join(cfg.DataDir, "exports"),
		RevokeDelay: cfg.RevokeDelay(),
	})
}

func wireAPI(router *gin.Engine, windows *window.Manager, tracker *task.Tracker,
	runner *task.Runner, exporter *export.Exporter, cfg config.Config,
) {
	apiHandler := api.NewAPI(windows, tracker, runner, exporter, api.Options{DataDir: cfg.DataDir})
	apiHandler.RegisterRoutes(router)
	apiHandler.RegisterUIRoutes(router)
}

func newHTTPServer(port int, handler http.Handler, readHeaderTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func waitForShutdownSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")
}

func gracefulShutdown(srv *http.Server, cancelBase context.CancelFunc,
	runner *task.Runner, windows *window.Manager, timeout time.Duration,
) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown warning")
	}

	cancelBase()
	if done := runner.WaitAll(ctx); !done {
		log.Warn().Msg("background workers did not finish before timeout")
	}
	if err := windows.SaveLayout(ctx); err != nil {
		log.Warn().Err(err).Msg("saving window layout failed")
	}
	log.Info().Msg("server exited cleanly")
}
