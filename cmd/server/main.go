// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mudly/realtime/internal/config"
	"github.com/mudly/realtime/internal/repository"
	"github.com/mudly/realtime/internal/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config Error: %v", err)
	}
	logger := services.NewLogger("realtime", cfg.Environment, cfg.LogLevel)

	db, err := repository.Open(repository.Config{
		Driver: cfg.DBDriver,
		DSN:    cfg.DatabaseURL,
		Debug:  cfg.DBDebug,
	})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	app, err := InitializeApplication(cfg, logger, db)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize application: %v", err)
	}

	err = run(app)
	app.Close()
	if err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run serves until SIGINT or SIGTERM, then drains in-flight requests.
func run(app *Application) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := newHTTPServer(app.Config, app.Router)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.Info("Server starting", "addr", srv.Addr, "env", app.Config.Environment, "db_driver", app.Config.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.Logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.ShutdownTimeout)
		defer cancel()

		// hijacked websocket connections are not tracked by Shutdown
		app.ChatRooms.Close()
		app.NotifyRooms.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	})

	return g.Wait()
}
