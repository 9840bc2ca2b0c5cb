package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/anonto42/circle/backend/internal/auth"
	"github.com/anonto42/circle/backend/internal/handlers"
	"github.com/anonto42/circle/backend/internal/router"
	"github.com/anonto42/circle/backend/internal/services"
	"github.com/anonto42/circle/backend/pkg/config"
	"github.com/anonto42/circle/backend/pkg/firebase"
	"github.com/anonto42/circle/backend/validators"
)

var errTerminated = errors.New("terminated")

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	config.SetupLogging(cfg)

	if err := run(context.Background(), cfg, openStore); err != nil {
		logrus.WithError(err).Fatal("service unexpectedly closed")
	}
	logrus.Info("service stopped")
}

// run serves until a termination signal arrives. The store is closed on
// every return path.
func run(ctx context.Context, cfg *config.Config, open func(context.Context, *config.Config) (*store, error)) error {
	st, err := open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.close()

	e, err := newServer(ctx, cfg, st)
	if err != nil {
		return err
	}

	gr, gctx := errgroup.WithContext(ctx)
	gr.Go(func() error {
		logrus.WithFields(logrus.Fields{
			"address": cfg.Address(),
			"store":   cfg.Store,
		}).Info("service started")

		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	gr.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		defer signal.Stop(sigs)

		select {
		case s := <-sigs:
			logrus.Infof("terminating by %s signal", s)
		case <-gctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return errTerminated
	})

	if err := gr.Wait(); err != nil && !errors.Is(err, errTerminated) {
		return err
	}
	return nil
}

// newServer wires services and routes on top of st.
func newServer(ctx context.Context, cfg *config.Config, st *store) (*echo.Echo, error) {
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	identity := services.NewIdentityService(st.users, auth.NewBcryptHasher(cfg.BcryptCost), tokens)

	fbApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	switch {
	case err == nil:
		identity.WithExternalVerifier(auth.NewFirebaseVerifier(fbApp.AuthClient))
	case errors.Is(err, firebase.ErrNotConfigured):
		logrus.Info("firebase credentials not set, firebase login disabled")
	default:
		return nil, fmt.Errorf("failed to initialize firebase: %w", err)
	}

	graph := services.NewGraphService(st.users)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, cfg)
	router.SetupRoutes(e, router.Dependencies{
		Identity: identity,
		Graph:    graph,
		Posts:    services.NewPostService(st.posts, st.users, graph),
		Notes:    services.NewNoteService(st.notes),
		Tokens:   tokens,
		Health:   handlers.NewHealthHandler(st.checks, cfg.StoreTimeout),
	})
	return e, nil
}
