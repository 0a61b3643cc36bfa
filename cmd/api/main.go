package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/auth"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/config"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/db"
	fundraisedomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fundraise"
	loandomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/loan"
	offerdomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/offer"
	verificationdomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/verification"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/http/handlers"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/observability"
	postgresrepo "github.com/Ananthadeb1/uiu-lending-backend/internal/repository/postgres"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/server"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/ws"
	"github.com/redis/go-redis/v9"
)

// redisPinger adapts the go-redis client to the handlers.Pinger interface.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: int(cfg.RedisDB)})
	defer rdb.Close()

	authRepo := db.NewAuthRepository(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
	idpVerifier := auth.NewIdPTokenVerifier(cfg.IdPIssuer, cfg.IdPAudience, cfg.IdPVerificationKey, cfg.IdPJWKSURL)
	authService := auth.NewService(authRepo, jwtManager, idpVerifier, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.AuthBootstrapAdminSubject)
	authHandler := handlers.NewAuthHandler(authService, auth.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	loanRepo := postgresrepo.NewLoanRepository(pool)
	offerRepo := postgresrepo.NewOfferRepository(pool)
	outboxRepo := postgresrepo.NewOutboxRepository(pool)
	notifRepo := postgresrepo.NewNotificationRepository(pool)

	loanService := loandomain.NewService(loanRepo, outboxRepo)
	offerService := offerdomain.NewService(offerRepo, loanRepo, outboxRepo)
	fundraiseService := fundraisedomain.NewService(postgresrepo.NewFundraiseRepository(pool))
	verificationService := verificationdomain.NewService(postgresrepo.NewVerificationRepository(pool), authRepo)

	loanHandler := handlers.NewLoanHandler(loanService, authRepo)
	offerHandler := handlers.NewOfferHandler(offerService, authRepo)
	fundraiseHandler := handlers.NewFundraiseHandler(fundraiseService, authRepo)
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	adminHandler := handlers.NewAdminHandler(
		authRepo,
		loanService,
		offerService,
		fundraiseService,
		verificationService,
		pool,
		redisPinger{client: rdb},
	)

	hub := ws.NewHub()
	wsHandler := ws.NewHandler(hub)
	notifier := ws.NewNotifier(notifRepo, hub, logger, cfg.NotifierPollInterval)

	notifierCtx, notifierCancel := context.WithCancel(context.Background())
	defer notifierCancel()
	go func() {
		if err := notifier.Run(notifierCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notifier stopped", "err", err)
		}
	}()

	r := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:              pool,
		AuthHandler:         authHandler,
		LoanHandler:         loanHandler,
		OfferHandler:        offerHandler,
		FundraiseHandler:    fundraiseHandler,
		VerificationHandler: verificationHandler,
		AdminHandler:        adminHandler,
		WSHandler:           wsHandler,
		JWTManager:          jwtManager,
		Redis:               rdb,
		IdempotencyTTL:      cfg.IdempotencyTTL,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	notifierCancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info("api server stopped")
}
