package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"projectboard/api"
	"projectboard/config"
	"projectboard/session"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides LISTEN_ADDR")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := log.StandardLogger()

	tp, shutdownTracing := setupTracing(logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warnf("tracing shutdown: %v", err)
		}
	}()

	backend, rc, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
	}
	opts, err := sessionOptions(cfg, rc, logger)
	if err != nil {
		return err
	}
	opts.TracerProvider = tp

	auth, closeAuth, err := newAuth(cfg)
	if err != nil {
		return err
	}
	defer closeAuth()

	sessions := session.NewManager(auth, backend, opts)
	defer sessions.Logout()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentEncoding},
	}))
	api.Register(e, sessions, logger)

	listenAddr := cfg.ListenAddr
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() {
		logger.WithField("addr", listenAddr).Info("listening")
		errc <- e.Start(listenAddr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newAuth verifies RS256 tokens against the tenant's key set, or HS256 tokens
// signed with TEST_JWT_SECRET in test mode.
func newAuth(cfg *config.Config) (*session.Auth, func(), error) {
	if cfg.Auth0TestMode {
		log.Warn("auth test mode enabled; tokens are verified with TEST_JWT_SECRET")
		return session.NewTestAuth([]byte(cfg.TestJWTSecret), cfg.Auth0Audience, cfg.Issuer()), func() {}, nil
	}
	jwks, err := keyfunc.Get(cfg.JWKSURL(), keyfunc.Options{})
	if err != nil {
		return nil, nil, err
	}
	return session.NewAuth(jwks, cfg.Auth0Audience, cfg.Issuer(), cfg.JWKSCacheTTL), jwks.EndBackground, nil
}
