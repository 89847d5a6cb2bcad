package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/studylink/studylink-server/internal/auth"
	"github.com/studylink/studylink-server/internal/config"
	"github.com/studylink/studylink-server/internal/relay"
	"github.com/studylink/studylink-server/internal/service/appointments"
	"github.com/studylink/studylink-server/internal/service/connections"
	"github.com/studylink/studylink-server/internal/service/reports"
	"github.com/studylink/studylink-server/internal/store"
	"github.com/studylink/studylink-server/internal/store/sqlite"
	transporthttp "github.com/studylink/studylink-server/internal/transport/http"
)

// App wires together relay, services and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *relay.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig)

	hub := relay.NewHub(relay.NewMapRegistry(), logger.With().Str("component", "relay").Logger())

	connectionService := connections.New(st, hub)
	appointmentService := appointments.New(st)
	reportService := reports.New(st)

	server := transporthttp.NewServer(transporthttp.Deps{
		Hub:          hub,
		Store:        st,
		AuthService:  authService,
		Connections:  connectionService,
		Appointments: appointmentService,
		Reports:      reportService,
		Config:       cfg,
		Log:          logger,
	})

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
