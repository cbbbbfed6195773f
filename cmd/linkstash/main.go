package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Initialize context that cancelled on SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		slog.Warn("Interrupt signal")
		cancel()
	}()

	if err := run(ctx, os.Getenv, os.Getwd, os.Args[1:]); err != nil {
		slog.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}

// run loads config, wires the app and serves until ctx is cancelled.
// Graceful stop is not an error.
func run(ctx context.Context, getenv func(string) string, getwd func() (string, error), args []string) error {
	config := NewConfig()
	if err := config.LoadDotEnv(getwd); err != nil {
		return fmt.Errorf("error while reading .env file. Err: %w", err)
	}
	config.LoadEnv(getenv)
	if err := config.ParseFlags(args); err != nil {
		return err
	}

	srv, err := NewServerApp(ctx, config)
	if err != nil {
		return err
	}

	if err := srv.Run(ctx); err != http.ErrServerClosed {
		return err
	}
	return nil
}
