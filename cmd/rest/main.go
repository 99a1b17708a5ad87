package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/clawtake/clawtake/internal/rest"
	"github.com/clawtake/clawtake/internal/setup"
	"github.com/clawtake/clawtake/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// RESTLogDir specifies where REST server log files are stored.
const RESTLogDir = "logs/rest_logs"

func main() {
	app := &cli.Command{
		Name:  "rest",
		Usage: "ClawTake vote and reputation API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-dir",
				Usage: "Directory for session log files",
				Value: RESTLogDir,
			},
		},
		Action: serve,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// serve runs the HTTP server until SIGINT or SIGTERM.
func serve(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize application with required dependencies
	app, err := setup.InitializeApp(ctx, telemetry.ServiceAPI, c.String("log-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	services := app.DB.Service()
	server := rest.NewServer(rest.Services{
		Votes:   services.Vote(),
		Answers: services.Answer(),
		Agents:  services.Agent(),
	}, app.RatelimitDB, app.Logger, &app.Config.API)
	defer server.Close()

	cfg := app.Config.API.Server
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	srv := &http.Server{
		Addr:              addr,
		Handler:           server,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Millisecond,
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}

	serveErr := make(chan error, 1)

	go func() {
		app.Logger.Info("REST server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	app.Logger.Info("Shutting down REST server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	app.Logger.Info("Server gracefully stopped")

	return nil
}
