package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/auth"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/config"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/db"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/http/handlers"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/http/middleware"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/version"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const maxRequestBodyBytes = 12 << 20

type Dependencies struct {
	Pinger              handlers.Pinger
	AuthHandler         *handlers.AuthHandler
	LoanHandler         *handlers.LoanHandler
	OfferHandler        *handlers.OfferHandler
	FundraiseHandler    *handlers.FundraiseHandler
	VerificationHandler *handlers.VerificationHandler
	AdminHandler        *handlers.AdminHandler
	WSHandler           *ws.Handler
	JWTManager          *auth.JWTManager
	Redis               *redis.Client
	IdempotencyTTL      time.Duration
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestBodyLimit(maxRequestBodyBytes))
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})

	idempotent := middleware.Idempotency(deps.Redis, deps.IdempotencyTTL)

	health := handlers.NewHealthHandler(deps.Pinger)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)

	if deps.AuthHandler != nil && deps.JWTManager != nil {
		authGroup := r.Group("/v1/auth")
		authGroup.POST("/login", deps.AuthHandler.Login)
		authGroup.POST("/refresh", deps.AuthHandler.Refresh)
		authGroup.POST("/logout", deps.AuthHandler.Logout)

		protected := authGroup.Group("")
		protected.Use(middleware.RequireAuth(deps.JWTManager))
		protected.GET("/me", deps.AuthHandler.Me)
	}

	if deps.LoanHandler != nil && deps.JWTManager != nil {
		loans := r.Group("/v1")
		loans.Use(middleware.RequireAuth(deps.JWTManager))
		loans.POST("/loans", idempotent, deps.LoanHandler.CreateLoanRequest)
		loans.GET("/loans", deps.LoanHandler.ListLoans)
		loans.GET("/loans/mine", deps.LoanHandler.ListUserLoans)
		loans.GET("/loans/user/:userId", deps.LoanHandler.ListUserLoans)
		loans.GET("/loans/:loanId", deps.LoanHandler.GetLoan)
		loans.PATCH("/loans/:loanId", deps.LoanHandler.UpdateLoanStatus)
	}

	if deps.OfferHandler != nil && deps.JWTManager != nil {
		offers := r.Group("/v1")
		offers.Use(middleware.RequireAuth(deps.JWTManager))
		offers.POST("/offers", idempotent, middleware.RequireRole(db.RoleDonor, db.RoleAdmin), deps.OfferHandler.SubmitOffer)
		offers.POST("/offers/:offerId/accept", idempotent, deps.OfferHandler.AcceptOffer)
		offers.POST("/offers/:offerId/reject", deps.OfferHandler.RejectOffer)
		offers.GET("/offers/loan/:loanId", deps.OfferHandler.ListLoanOffers)
		offers.GET("/offers/donor/:donorId", deps.OfferHandler.ListDonorOffers)
		offers.GET("/comparison/my-offers", deps.OfferHandler.MyOffers)
	}

	if deps.FundraiseHandler != nil && deps.JWTManager != nil {
		fr := r.Group("/v1")
		fr.Use(middleware.RequireAuth(deps.JWTManager))
		fr.POST("/fundraise", idempotent, deps.FundraiseHandler.CreateCampaign)
		fr.GET("/fundraise", deps.FundraiseHandler.ListCampaigns)
		fr.POST("/fundraise/:campaignId/donate", idempotent, deps.FundraiseHandler.Donate)
	}

	if deps.VerificationHandler != nil && deps.JWTManager != nil {
		v := r.Group("/v1")
		v.Use(middleware.RequireAuth(deps.JWTManager))
		v.POST("/verification", deps.VerificationHandler.Submit)
		v.GET("/verification/me", deps.VerificationHandler.MyStatus)
		v.GET("/verification/history", deps.VerificationHandler.MyHistory)
	}

	if deps.AdminHandler != nil && deps.JWTManager != nil {
		adminGroup := r.Group("/admin")
		adminGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(db.RoleAdmin))
		adminGroup.GET("/users", deps.AdminHandler.ListUsers)
		adminGroup.PATCH("/users/:userId/role", deps.AdminHandler.UpdateUserRole)
		adminGroup.DELETE("/users/:userId", deps.AdminHandler.DeleteUser)
		adminGroup.GET("/loans", deps.AdminHandler.ListLoans)
		adminGroup.GET("/offers", deps.AdminHandler.ListOffers)
		adminGroup.GET("/fundraise", deps.AdminHandler.ListCampaigns)
		adminGroup.GET("/verification/pending", deps.AdminHandler.ListPendingVerifications)
		adminGroup.POST("/verification/:submissionId/review", deps.AdminHandler.ReviewVerification)
		adminGroup.GET("/system/health", deps.AdminHandler.SystemHealth)
	}

	if deps.WSHandler != nil && deps.JWTManager != nil {
		wsGroup := r.Group("/v1")
		wsGroup.Use(middleware.RequireAuth(deps.JWTManager))
		wsGroup.GET("/ws", deps.WSHandler.HandleWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
