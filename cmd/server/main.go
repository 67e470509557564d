package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ngenohkevin/circulation/internal/config"
	"github.com/ngenohkevin/circulation/internal/database"
	"github.com/ngenohkevin/circulation/internal/database/reports"
	"github.com/ngenohkevin/circulation/internal/handlers"
	"github.com/ngenohkevin/circulation/internal/middleware"
	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/ngenohkevin/circulation/internal/policy"
	"github.com/ngenohkevin/circulation/internal/services"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database connection
	db, err := database.New(cfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if os.Getenv("LMS_AUTO_MIGRATE") == "true" {
		applied, err := database.Migrate(context.Background(), db.Pool, logger)
		if err != nil {
			slog.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Migrations applied", "versions", applied)
	}

	// Initialize Redis connection
	redis, err := database.NewRedis(cfg)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redis.Close()

	// Use the configured RSA key if available, otherwise generate a fallback key
	jwtPrivateKey := cfg.JWT.PrivateKey
	if jwtPrivateKey == "" {
		slog.Warn("No JWT private key configured, generating an ephemeral development key")
		jwtPrivateKey = getDefaultRSAPrivateKey()
	}

	store := database.NewStore(db.Pool)
	reportReader := reports.New(db.Pool)
	defer reportReader.Close()

	authService, err := services.NewAuthService(
		jwtPrivateKey,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour,
		logger,
		redis.Client,
	)
	if err != nil {
		slog.Error("Failed to initialize auth service", "error", err)
		os.Exit(1)
	}
	authService.WithUsers(store)

	auditService := services.NewAuditService(store)
	settingsService := services.NewSettingsService(store, cfg.Library, logger).
		WithCache(redis).
		WithAudit(auditService)

	dispatcher := services.NewRedisDispatcher(redis.Client, cfg.Notifications, logger)
	notifier := services.NewNotifier(dispatcher, store, settingsService, cfg.Notifications.DaysBeforeDue)

	var events services.EventPublisher = services.NopPublisher{}
	if cfg.Events.Enabled {
		publisher, err := services.NewAMQPPublisher(cfg.Events, logger)
		if err != nil {
			slog.Error("Failed to connect event publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		events = publisher
	}

	catalogService := services.NewCatalogService(store, settingsService, logger).WithAudit(auditService)
	membershipService := services.NewMembershipService(store, settingsService, logger).WithAudit(auditService)
	reservationService := services.NewReservationService(store, settingsService, logger).
		WithAudit(auditService).
		WithNotifier(notifier).
		WithEvents(events)
	issuanceService := services.NewIssuanceService(store, settingsService, logger).
		WithAudit(auditService).
		WithNotifier(notifier).
		WithEvents(events)
	fineService := services.NewFineService(store, reportReader, logger).
		WithAudit(auditService).
		WithNotifier(notifier).
		WithEvents(events)
	exportService := services.NewFineExportService(fineService)

	handlers.RegisterValidators()

	// Initialize Gin router
	r := gin.New()

	// Add global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	rateLimiter := middleware.NewRateLimiter(redis.Client, logger)
	authMiddleware := middleware.NewAuthMiddleware(authService, policy.NewRolePolicy())
	rules := authMiddleware.Policy()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redis)
	authHandler := handlers.NewAuthHandler(authService)
	bookHandler := handlers.NewBookHandler(catalogService)
	memberHandler := handlers.NewMemberHandler(membershipService, rules)
	reservationHandler := handlers.NewReservationHandler(reservationService, rules)
	loanHandler := handlers.NewLoanHandler(issuanceService, rules)
	fineHandler := handlers.NewFineHandler(fineService, exportService, rules)
	adminHandler := handlers.NewAdminHandler(reservationService, issuanceService, settingsService, auditService, dispatcher)

	// Public routes (no authentication required)
	public := r.Group("/api/v1")
	{
		public.GET("/ping", healthHandler.Ping)
		public.GET("/health", healthHandler.Health)

		auth := public.Group("/auth")
		auth.Use(rateLimiter.AuthLimit())
		{
			auth.POST("/login", authHandler.Login)
		}
	}

	// Protected routes (authentication required)
	protected := r.Group("/api/v1")
	protected.Use(authMiddleware.RequireAuth())
	protected.Use(rateLimiter.APILimit())
	protected.Use(middleware.NoStore())
	{
		protected.GET("/profile", authHandler.Profile)
		protected.POST("/auth/logout", authHandler.Logout)

		reservations := protected.Group("/reservations")
		{
			reservations.POST("", reservationHandler.CreateReservation)
			reservations.GET("", authMiddleware.RequirePermission(policy.ActionListReservations), reservationHandler.ListReservations)
			reservations.GET("/:id", reservationHandler.GetReservation)
			reservations.POST("/:id/fulfill", reservationHandler.FulfillReservation)
			reservations.POST("/:id/issue", reservationHandler.IssueReservation)
			reservations.POST("/:id/cancel", reservationHandler.CancelReservation)
		}

		loans := protected.Group("/loans")
		{
			loans.POST("", loanHandler.IssueLoan)
			loans.GET("", authMiddleware.RequirePermission(policy.ActionIssueLoan), loanHandler.ListLoans)
			loans.GET("/:id", loanHandler.GetLoan)
			loans.POST("/:id/return", loanHandler.ReturnLoan)
			loans.PUT("/:id/fine", fineHandler.SettleLoanFine)
		}

		fines := protected.Group("/fines")
		{
			fines.POST("/collect", fineHandler.CollectFines)

			reportsGroup := fines.Group("")
			reportsGroup.Use(authMiddleware.RequirePermission(policy.ActionViewReports))
			reportsGroup.GET("/collected", fineHandler.Report(models.ReportCollected))
			reportsGroup.GET("/pending", fineHandler.Report(models.ReportPending))
			reportsGroup.GET("/cash-in-hand", fineHandler.Report(models.ReportCashInHand))
			reportsGroup.GET("/financial-reports", fineHandler.FinancialSummary)
			reportsGroup.GET("/export", fineHandler.ExportReport)
		}

		books := protected.Group("/books")
		{
			books.GET("", authMiddleware.RequirePermission(policy.ActionViewBooks), bookHandler.ListBooks)
			books.GET("/:id", authMiddleware.RequirePermission(policy.ActionViewBooks), bookHandler.GetBook)
			books.POST("", authMiddleware.RequirePermission(policy.ActionManageBooks), bookHandler.CreateBook)
			books.PATCH("/:id/status", authMiddleware.RequirePermission(policy.ActionManageBooks), bookHandler.UpdateBookStatus)
		}

		members := protected.Group("/members")
		{
			members.POST("", authMiddleware.RequirePermission(policy.ActionManageMembers), memberHandler.CreateMember)
			members.GET("/:id", memberHandler.GetMember)
			members.GET("/:id/reservations", reservationHandler.ListMemberReservations)
			members.GET("/:id/loans", loanHandler.ListMemberLoans)
			members.GET("/:id/fines", fineHandler.ListMemberFines)
			members.POST("/:id/toggle-active", authMiddleware.RequirePermission(policy.ActionManageMembers), memberHandler.ToggleMemberActive)
		}

		users := protected.Group("/users")
		users.Use(authMiddleware.RequirePermission(policy.ActionApproveUsers))
		{
			users.GET("", memberHandler.ListUsers)
			users.POST("/:id/approve", memberHandler.ApproveUser)
			users.POST("/:id/decline", memberHandler.DeclineUser)
		}

		admin := protected.Group("/admin")
		{
			admin.POST("/sweeps/stale-reservations", authMiddleware.RequirePermission(policy.ActionRunSweeps), adminHandler.SweepStaleReservations)
			admin.POST("/sweeps/overdue-loans", authMiddleware.RequirePermission(policy.ActionRunSweeps), adminHandler.MarkOverdueLoans)
			admin.GET("/settings", authMiddleware.RequirePermission(policy.ActionViewSettings), adminHandler.GetSettings)
			admin.PUT("/settings", authMiddleware.RequirePermission(policy.ActionUpdateSettings), adminHandler.UpdateSettings)
			admin.GET("/audit-logs", authMiddleware.RequirePermission(policy.ActionViewReports), adminHandler.ListAuditLogs)
			admin.GET("/notifications/queue", authMiddleware.RequirePermission(policy.ActionRunSweeps), adminHandler.QueueStats)
		}
	}

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Root health check
	r.GET("/health", healthHandler.Health)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Notification delivery runs alongside the API until shutdown
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		err := dispatcher.Run(workerCtx, services.LogSender{Logger: logger}, cfg.Notifications.PollInterval)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Notification dispatcher stopped", "error", err)
		}
	}()

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "port", port, "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	stopWorker()
	<-workerDone

	slog.Info("Server exited")
}

// getDefaultRSAPrivateKey generates a default RSA private key for development
// In production, use proper RSA keys from configuration
func getDefaultRSAPrivateKey() string {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		slog.Error("Failed to generate RSA key", "error", err)
		os.Exit(1)
	}

	privateKeyPEM := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}

	return string(pem.EncodeToMemory(privateKeyPEM))
}
