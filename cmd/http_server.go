package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/approval"
	approvalPostgres "github.com/blitztech/access-management/internal/approval/postgres"
	"github.com/blitztech/access-management/internal/audit"
	auditPostgres "github.com/blitztech/access-management/internal/audit/postgres"
	"github.com/blitztech/access-management/internal/auth"
	authPostgres "github.com/blitztech/access-management/internal/auth/postgres"
	"github.com/blitztech/access-management/internal/core/common/validation"
	"github.com/blitztech/access-management/internal/core/events"
	"github.com/blitztech/access-management/internal/mailgateway"
	"github.com/blitztech/access-management/internal/policy"
	"github.com/blitztech/access-management/internal/profile"
	profilePostgres "github.com/blitztech/access-management/internal/profile/postgres"
	"github.com/blitztech/access-management/internal/transport/rest"
	"github.com/blitztech/access-management/internal/transport/swagger"
	"github.com/blitztech/access-management/internal/user"
	userPostgres "github.com/blitztech/access-management/internal/user/postgres"
	"github.com/blitztech/access-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	GormDB     *gorm.DB
	Router     *chi.Mux
	Handlers   rest.Handlers
	AreaGuard  *policy.AreaGuard
	MailClient *mailgateway.Client
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.Handlers,
		deps.AreaGuard,
		deps.Config.Server.AllowedOriginList(),
		deps.Logger,
	)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.MailClient.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	if err := swagger.ValidateSpec(context.Background(), "./api/openapi.yml"); err != nil {
		lg.Warn("OpenAPI spec validation failed, Swagger UI may be broken", "error", err)
	}

	// Credential policies
	passwordPolicy := validation.NewPasswordPolicy(config.Policy)
	phonePolicy := validation.NewPhonePolicy(config.Policy.PhoneCountryCode)
	emailPolicy := validation.NewEmailPolicy(config.Policy)

	// Repositories
	auditRepo := auditPostgres.NewAuditRepository(gormDB)
	userRepo := userPostgres.NewUserRepository(gormDB)
	profileRepo := profilePostgres.NewProfileRepository(gormDB)
	approvalRepo := approvalPostgres.NewApprovalRepository(gormDB)
	authRepo := authPostgres.NewRepository(gormDB)

	// Event bus and notification dispatch
	eventBus := events.NewEventBus(lg)
	mailClient := mailgateway.NewClient(mailgateway.Config{
		APIURL:         config.Mail.APIURL,
		APIKey:         config.Mail.APIKey,
		FromAddress:    config.Mail.FromAddress,
		RequestTimeout: config.Mail.RequestTimeout,
		MaxWorkers:     config.Mail.MaxWorkers,
		JobQueueSize:   config.Mail.JobQueueSize,
	}, lg)
	eventBus.Subscribe(events.EventTypeRequestApproved, mailClient.HandleDecisionEvent)
	eventBus.Subscribe(events.EventTypeRequestRejected, mailClient.HandleDecisionEvent)

	// Services
	auditService := audit.NewService(auditRepo, lg)
	userService := user.NewService(userRepo)
	profileService := profile.NewService(
		profileRepo, userRepo, auditService,
		passwordPolicy, phonePolicy, emailPolicy,
		config.Security.BCryptCost, lg,
	)
	approvalService := approval.NewService(approvalRepo, profileService, userService, auditService, eventBus, lg)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	var limiter auth.CounterStore = auth.NewMemoryCounterStore()
	if config.Security.LoginCounterStore == "postgres" {
		limiter = authPostgres.NewCounterStore(gormDB)
	}
	authService := auth.NewService(authRepo, tokenGen, limiter, auditService, passwordPolicy, config.Security, lg)

	// Policy engine and HTTP guard
	engine := policy.NewEngine()
	areaGuard := policy.NewAreaGuard(engine, profileService, lg)

	handlers := rest.Handlers{
		Auth:     auth.NewHandler(authService),
		User:     user.NewHandler(userService),
		Profile:  profile.NewHandler(profileService),
		Approval: approval.NewHandler(approvalService),
		Policy:   policy.NewHandler(engine, profileService),
		Audit:    audit.NewHandler(auditService),
	}

	return &Dependencies{
		Config:     config,
		DB:         db,
		GormDB:     gormDB,
		Router:     chi.NewRouter(),
		Handlers:   handlers,
		AreaGuard:  areaGuard,
		MailClient: mailClient,
		Logger:     lg,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
