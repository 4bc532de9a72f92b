package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rxtech-lab/actionkeeper/internal/api"
	"github.com/rxtech-lab/actionkeeper/internal/api/middleware"
	"github.com/rxtech-lab/actionkeeper/internal/blobstore"
	"github.com/rxtech-lab/actionkeeper/internal/config"
	"github.com/rxtech-lab/actionkeeper/internal/server"
	"github.com/rxtech-lab/actionkeeper/internal/utils"
)

var (
	apiServer *api.APIServer
	initOnce  sync.Once
	initErr   error
)

// Handler is the main Vercel function handler
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		initErr = initializeAPIServer()
	})
	if initErr != nil {
		log.Printf("Failed to initialize API server: %v", initErr)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	adaptor.FiberApp(apiServer.GetFiberApp())(w, r)
}

func initializeAPIServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// only /tmp is writable on Vercel
	if os.Getenv("VERCEL") == "1" {
		if os.Getenv("DB_PATH") == "" {
			cfg.DBPath = "/tmp/actionkeeper.db"
		}
		if os.Getenv("ARTIFACTS_DIR") == "" {
			cfg.Artifacts.Dir = "/tmp/artifacts"
		}
	}

	dbService, err := server.OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	verifyBaseURL := cfg.VerifyBaseURL
	if verifyBaseURL == "" {
		if verifyBaseURL, err = utils.GetVerifyBaseURL(cfg.Port); err != nil {
			return err
		}
	}

	store, err := blobstore.NewStoreFromConfig(context.Background(), cfg.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	svcs, err := server.InitializeServices(dbService.GetDB(), server.Options{
		Store:              store,
		VerifyBaseURL:      verifyBaseURL,
		PaymentBypassToken: cfg.PaymentBypassToken,
	})
	if err != nil {
		return err
	}
	paymentLinkHook, receiptHook := server.InitializeHooks(svcs, cfg.PaymentBypassToken)
	server.RegisterHooks(svcs.Hooks, paymentLinkHook, receiptHook)

	authConfig := middleware.AuthConfig{APIToken: cfg.APIToken}
	if cfg.JWTSecret != "" {
		authConfig.JWTAuthenticator = utils.NewJwtAuthenticator(cfg.JWTSecret)
	}

	apiServer = api.NewAPIServer(svcs.Negotiation, svcs.Payments, api.ServerConfig{
		Auth: authConfig,
		Webhook: middleware.WebhookConfig{
			Secret:    cfg.WebhookSecret,
			Tolerance: cfg.WebhookTolerance,
		},
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		VerifyBaseURL:      verifyBaseURL,
	})
	apiServer.SetupRoutes()

	apiServer.GetFiberApp().Get("/", func(c *fiber.Ctx) error {
		return c.JSON(map[string]interface{}{
			"message": "ActionKeeper API",
			"status":  "running",
			"version": "1.0.0",
		})
	})

	return nil
}
