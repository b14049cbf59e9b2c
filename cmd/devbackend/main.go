package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-client/api/apifake"
	"github.com/jrsteele09/go-session-client/internal/config"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "Password123"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running dev backend")
	}
	log.Info().Msg("dev backend stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(c.GetLogLevel()).
		With().Timestamp().Logger()

	displayAppname(c.GetAppName() + " dev")
	backend, err := newBackend()
	if err != nil {
		return err
	}
	server := &http.Server{Addr: c.GetDevBackendPort(), Handler: backend, ReadHeaderTimeout: 10 * time.Second}

	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(server) }()
	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

// newBackend builds the fake API with registration auto-verified and one demo account.
func newBackend() (*apifake.Server, error) {
	backend := apifake.New(apifake.WithAutoVerify(true))
	if _, err := backend.AddAccount(apifake.AccountSeed{
		Username:      "demo",
		Email:         demoEmail,
		Password:      demoPassword,
		Verified:      true,
		TermsAgreed:   true,
		PrivacyAgreed: true,
		CountryID:     1,
	}); err != nil {
		return nil, fmt.Errorf("seed demo account: %w", err)
	}
	log.Info().Str("email", demoEmail).Msg("demo account ready")
	return backend, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("dev backend listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
