package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gever/intake/internal/config"
	"github.com/gever/intake/internal/domain/affiliate"
	"github.com/gever/intake/internal/domain/analytics"
	"github.com/gever/intake/internal/domain/checkout"
	"github.com/gever/intake/internal/domain/intake"
	"github.com/gever/intake/internal/domain/submission"
	"github.com/gever/intake/internal/domain/verification"
	"github.com/gever/intake/internal/platform/auth"
	"github.com/gever/intake/internal/platform/besteffort"
	"github.com/gever/intake/internal/platform/blobstore"
	"github.com/gever/intake/internal/platform/captcha"
	"github.com/gever/intake/internal/platform/db"
	"github.com/gever/intake/internal/platform/hipaa"
	"github.com/gever/intake/internal/platform/middleware"
	"github.com/gever/intake/internal/platform/otp"
	"github.com/gever/intake/internal/platform/payment"
	"github.com/gever/intake/migrations"
)

const version = "0.1.0"

// devOTPCode is accepted by the in-memory SMS verifier used when Twilio is
// not configured outside production.
const devOTPCode = "123456"

func main() {
	rootCmd := &cobra.Command{
		Use:   "intake-server",
		Short: "Medical intake questionnaire API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(screensCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the intake API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run blob store migrations (postgres backend)",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			pool, migrator, err := openMigrator(dir)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Printf("Running migrations on schema: %s\n", schema)
			count, err := migrator.Up(context.Background(), schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "public", "Target schema for migrations")
	upCmd.Flags().String("dir", "", "Migrations directory (default: embedded set)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			pool, migrator, err := openMigrator(dir)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := migrator.Status(context.Background(), schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", "public", "Target schema for migrations")
	statusCmd.Flags().String("dir", "", "Migrations directory (default: embedded set)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func openMigrator(dir string) (*pgxpool.Pool, *db.Migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required for migrations")
	}
	pool, err := db.NewPool(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	if dir != "" {
		return pool, db.NewMigrator(pool, os.DirFS(dir)), nil
	}
	return pool, db.NewMigrator(pool, migrations.FS), nil
}

// screensCmd prints the questionnaire catalog, which is compiled into the
// binary.
func screensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "screens",
		Short: "List the questionnaire screens and their visibility rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for i, s := range intake.Screens() {
				rule := ""
				for j, c := range s.ShowIf {
					if j > 0 {
						rule += " AND "
					}
					switch {
					case c.Equals != nil:
						rule += c.ScreenID + " == " + *c.Equals
					case c.NotEquals != nil:
						rule += c.ScreenID + " != " + *c.NotEquals
					}
				}
				fmt.Fprintf(out, "%-3d %-32s %-14s %s\n", i, s.ID, s.Type, rule)
			}
			return nil
		},
	}
}

func newLogger(dev bool) zerolog.Logger {
	if dev {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.IsDev())
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	store, pool, err := openBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open blob store")
	}
	if pool != nil {
		defer pool.Close()
	}
	logger.Info().Str("backend", cfg.BlobBackend).Msg("blob store ready")

	e, runner, err := newServer(cfg, store, pool, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	// let in-flight audit and analytics writes land
	runner.Wait()
	logger.Info().Msg("server stopped")
	return nil
}

// openBlobStore selects the backend. pool is non-nil only for postgres.
func openBlobStore(ctx context.Context, cfg *config.Config) (blobstore.Store, *pgxpool.Pool, error) {
	switch cfg.BlobBackend {
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, err
		}
		return blobstore.NewPostgres(pool), pool, nil
	case "s3":
		client, err := blobstore.LoadS3Client(ctx, cfg.AWSRegion, cfg.AWSEndpointURL)
		if err != nil {
			return nil, nil, err
		}
		return blobstore.NewS3(client, cfg.S3Bucket, cfg.S3Prefix), nil, nil
	default:
		return blobstore.NewMemory(), nil, nil
	}
}

// newServer wires every domain onto a fresh echo instance. The returned
// runner carries the background writes and must be drained on shutdown.
func newServer(cfg *config.Config, store blobstore.Store, pool *pgxpool.Pool, logger zerolog.Logger) (*echo.Echo, *besteffort.Runner, error) {
	dev := cfg.IsDev()
	runner := besteffort.NewRunner(logger, 0)
	limiter := middleware.NewLimiter(blobstore.Namespace(store, blobstore.RateLimits), runner, logger)

	var sealer *hipaa.Sealer
	if key := cfg.FormSessionKeyBytes(); key != nil {
		s, err := hipaa.NewSealer(key)
		if err != nil {
			return nil, nil, fmt.Errorf("form session sealer: %w", err)
		}
		sealer = s
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.Origin(cfg.Origins()))
	e.Use(middleware.BodyLimit(cfg.MaxBodySize))
	e.Use(middleware.Sanitize(logger))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Health
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, cfg.BlobBackend))

	// API groups
	apiV1 := e.Group("/api/v1")
	admins := auth.NewAdminSessions(cfg.AdminLogToken, !dev)
	admins.RegisterRoutes(apiV1)
	requireAdmin := admins.RequireAdmin()
	adminGroup := apiV1.Group("/admin", middleware.AdminAudit(logger, dev), requireAdmin)

	// Payment provider
	var gateway payment.Gateway
	switch {
	case cfg.StripeSecretKey != "":
		gateway = payment.NewStripe(cfg.StripeSecretKey)
	case dev:
		logger.Warn().Msg("STRIPE_SECRET_KEY not set; using in-memory payment holds")
		gateway = payment.NewMemory()
	}

	// SMS verification
	// Without credentials the Twilio verifier reports ErrNotConfigured.
	var sms otp.Verifier = otp.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioVerifyServiceSID)
	if !cfg.TwilioConfigured() && !cfg.IsProduction() {
		logger.Warn().Str("code", devOTPCode).Msg("Twilio not configured; SMS codes are logged, not sent")
		sms = otp.NewMemory(devOTPCode, logger)
	}

	// Questionnaire flow and form snapshots
	flow := intake.DefaultFlow()
	formSessions := intake.NewFormSessions(intake.NewFormSessionRepoBlob(store), sealer, runner, logger)
	intake.NewHandler(flow, formSessions, limiter, dev, logger).RegisterRoutes(apiV1)

	// Affiliates and discounts
	logStore := submission.NewLogStoreBlob(store, logger)
	affiliateSvc := affiliate.NewService(affiliate.NewRepoBlob(store), logger)
	affiliateSvc.SetSalesSource(logStore)
	if loc, err := cfg.ExpiryLocation(); err == nil {
		affiliateSvc.SetLocation(loc)
	}
	affiliate.NewHandler(affiliateSvc, limiter, dev, logger).RegisterRoutes(apiV1, adminGroup)

	// Checkout
	checkoutSvc := checkout.NewService(gateway, affiliateSvc, logger)
	checkout.NewHandler(checkoutSvc, limiter, dev, logger).RegisterRoutes(apiV1)

	// Phone verification
	verifySvc := verification.NewService(sms, captcha.NewTurnstile(cfg.TurnstileSecretKey), logger)
	verification.NewHandler(verifySvc, limiter, dev, logger).RegisterRoutes(apiV1)

	// Visit submission
	beluga := submission.NewBeluga(cfg.BelugaAPIKey, cfg.BelugaPharmacyID, submission.WithBaseURL(cfg.BelugaAPIURL))
	if !beluga.Configured() {
		logger.Warn().Msg("Beluga credentials not set; visit submissions will be refused")
	}
	pipeline := submission.NewPipeline(beluga, gateway, logStore, runner, logger)
	pipeline.SetUsageRecorder(affiliateSvc)
	submission.NewHandler(pipeline, logStore, limiter, dev, logger).
		RegisterRoutes(apiV1, middleware.AdminAudit(logger, dev), requireAdmin)

	// Analytics
	analyticsSvc := analytics.NewService(analytics.NewRepoBlob(store), runner, logger)
	analytics.NewHandler(analyticsSvc, limiter, dev, logger).RegisterRoutes(apiV1, adminGroup)

	return e, runner, nil
}
