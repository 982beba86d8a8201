package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/adapters/cache"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/adapters/database"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/adapters/events"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/adapters/providers/clinical"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/api/handlers"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/api/routes"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/application/services"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/providers"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/notifications"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/observability"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/config"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/secrets"
)

func main() {

	// Pull deployment secrets into the environment before reading config
	vaultCfg := secrets.LoadVaultConfigFromEnv("")
	if result, err := secrets.ApplyVaultSecrets(context.Background(), vaultCfg); err != nil {
		log.Printf("Warning: Vault secrets not applied: %v", err)
	} else if result.Enabled {
		log.Printf("Vault secrets applied from %s (loaded %d, skipped %d)", result.Path, result.Loaded, result.Skipped)
	}

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// sqlx view over the same pool for the raw-SQL paths (notifications,
	// webhook event audit)
	sqlxDB := sqlx.NewDb(pgClient.DB(), "postgres")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time order updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Initialize adapters

	// Create base organization adapter
	baseOrgAdapter := database.NewOrganizationAdapter(pgClient)

	// Wrap with caching if Redis is available (advisory reads only; debits
	// always go through the conditional UPDATE)
	var orgAdapter repositories.OrganizationRepository
	if cacheProvider != nil {
		orgAdapter = database.NewCachedOrganizationAdapter(baseOrgAdapter, cacheProvider)
		log.Println("Organization adapter wrapped with caching layer")
	} else {
		orgAdapter = baseOrgAdapter
		log.Println("Organization adapter running without cache (Redis unavailable)")
	}

	orderAdapter := database.NewOrderAdapter(pgClient)
	orderHistoryAdapter := database.NewOrderHistoryAdapter(pgClient)
	attemptAdapter := database.NewValidationAttemptAdapter(pgClient)
	creditUsageAdapter := database.NewCreditUsageAdapter(pgClient)
	billingEventAdapter := database.NewBillingEventAdapter(pgClient)
	patientAdapter := database.NewPatientAdapter(pgClient)
	relationshipAdapter := database.NewRelationshipAdapter(pgClient)
	purgatoryAdapter := database.NewPurgatoryAdapter(pgClient)
	userAdapter := database.NewUserAdapter(pgClient)

	// Clinical providers fall back to mocks when unconfigured
	providerCfg := clinical.ProviderConfig{
		ValidationBaseURL: cfg.Clinical.ValidationBaseURL,
		ValidationAPIKey:  cfg.Clinical.ValidationAPIKey,
		ParserBaseURL:     cfg.Clinical.ParserBaseURL,
		ParserAPIKey:      cfg.Clinical.ParserAPIKey,
	}
	validationEngine := clinical.NewValidationEngine(providerCfg)
	emrParser := clinical.NewEMRParser(providerCfg)

	var notificationSender providers.NotificationSender
	emailSender, err := notifications.NewEmailAPISender(&cfg.Notifications)
	if err != nil {
		log.Printf("Warning: %v; notifications will be logged only", err)
		notificationSender = notifications.NewLogSender()
	} else {
		notificationSender = emailSender
	}

	// Initialize services

	ledger := services.NewCreditLedgerService(
		orgAdapter,
		creditUsageAdapter,
		billingEventAdapter,
		cfg.Billing.TestMode,
	)
	ledger.SetMetrics(metrics)
	if cfg.Billing.TestMode {
		log.Println("Billing test mode is ON: debits are bypassed")
	}

	statusService := services.NewOrderStatusService(orderAdapter, orderHistoryAdapter)
	statusService.SetMetrics(metrics)

	notificationService := services.NewNotificationService(sqlxDB, notificationSender, userAdapter)

	validationService := services.NewValidationService(
		pgClient,
		orderAdapter,
		attemptAdapter,
		orderHistoryAdapter,
		ledger,
		statusService,
		validationEngine,
		eventBus,
	)

	adminService := services.NewAdminOrderService(
		pgClient,
		orderAdapter,
		orgAdapter,
		patientAdapter,
		relationshipAdapter,
		ledger,
		statusService,
		emrParser,
		eventBus,
		notificationService,
	)

	subscriptionService := services.NewSubscriptionService(
		pgClient,
		orgAdapter,
		relationshipAdapter,
		purgatoryAdapter,
		ledger,
		notificationService,
		cfg.Billing.PriceTierMap,
	)

	// Initialize handlers

	orderHandler := handlers.NewOrderHandler(
		validationService,
		adminService,
		orderAdapter,
		orderHistoryAdapter,
		attemptAdapter,
	)

	organizationHandler := handlers.NewOrganizationHandler(orgAdapter, creditUsageAdapter)

	billingWebhookHandler := handlers.NewBillingWebhookHandler(
		sqlxDB,
		subscriptionService,
		cfg.Billing.WebhookSecret,
		metrics,
	)
	if cfg.Billing.WebhookSecret == "" {
		log.Println("Warning: BILLING_WEBHOOK_SECRET is not set; webhook signatures are not verified")
	}

	// Set up router

	router := routes.NewRouter(
		orderHandler,
		organizationHandler,
		billingWebhookHandler,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
