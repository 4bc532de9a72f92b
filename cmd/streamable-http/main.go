package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file if present
	"github.com/rxtech-lab/actionkeeper/internal/api"
	"github.com/rxtech-lab/actionkeeper/internal/api/middleware"
	"github.com/rxtech-lab/actionkeeper/internal/blobstore"
	"github.com/rxtech-lab/actionkeeper/internal/config"
	"github.com/rxtech-lab/actionkeeper/internal/mcp"
	"github.com/rxtech-lab/actionkeeper/internal/server"
	"github.com/rxtech-lab/actionkeeper/internal/services"
	"github.com/rxtech-lab/actionkeeper/internal/telemetry"
	"github.com/rxtech-lab/actionkeeper/internal/utils"
)

// Version is set via ldflags
var Version = "dev"

func configureAndStartServer(cfg *config.Config, dbService services.DBService, port int) (*api.APIServer, int, error) {
	var err error
	if port == 0 {
		if port, err = api.FindAvailablePort(); err != nil {
			return nil, 0, err
		}
	}
	verifyBaseURL := cfg.VerifyBaseURL
	if verifyBaseURL == "" {
		if verifyBaseURL, err = utils.GetVerifyBaseURL(port); err != nil {
			return nil, 0, err
		}
	}

	store, err := blobstore.NewStoreFromConfig(context.Background(), cfg.Artifacts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	svcs, err := server.InitializeServices(dbService.GetDB(), server.Options{
		Store:              store,
		VerifyBaseURL:      verifyBaseURL,
		PaymentBypassToken: cfg.PaymentBypassToken,
	})
	if err != nil {
		return nil, 0, err
	}
	paymentLinkHook, receiptHook := server.InitializeHooks(svcs, cfg.PaymentBypassToken)
	server.RegisterHooks(svcs.Hooks, paymentLinkHook, receiptHook)

	authConfig := middleware.AuthConfig{APIToken: cfg.APIToken}
	if cfg.JWTSecret != "" {
		authConfig.JWTAuthenticator = utils.NewJwtAuthenticator(cfg.JWTSecret)
	}
	if !authConfig.Enabled() {
		log.Printf("API_TOKEN and JWT_SECRET are not set, the API and /mcp are unauthenticated")
	}

	apiServer := api.NewAPIServer(svcs.Negotiation, svcs.Payments, api.ServerConfig{
		Auth: authConfig,
		Webhook: middleware.WebhookConfig{
			Secret:    cfg.WebhookSecret,
			Tolerance: cfg.WebhookTolerance,
		},
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		VerifyBaseURL:      verifyBaseURL,
	})
	apiServer.SetupRoutes()
	apiServer.SetMCPServer(mcp.NewMCPServer(svcs.Negotiation, svcs.Payments, verifyBaseURL))
	apiServer.EnableStreamableHttp()

	startedPort, err := apiServer.Start(&port)
	if err != nil {
		return nil, 0, err
	}
	return apiServer, startedPort, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	meterProvider, err := telemetry.Setup(context.Background(), telemetry.Config{
		ServiceName:    "actionkeeper",
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatal("Failed to initialize telemetry:", err)
	}

	dbService, err := server.OpenDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database service:", err)
	}
	defer dbService.Close()

	apiServer, startedPort, err := configureAndStartServer(cfg, dbService, cfg.Port)
	if err != nil {
		log.Fatal("Failed to start API server:", err)
	}

	log.Printf("API server started on port %d (%s)\n", startedPort, cfg.AppEnv)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("\nShutting down server...")

	if err := apiServer.Shutdown(); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down meter provider: %v", err)
	}

	log.Println("Server shut down successfully")
}
