package main

import (
	"context"
	"flag"
	"fmt"
	"io"
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

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func configureAndStartServer(dbService services.DBService, port int) (*api.APIServer, int, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load config: %w", err)
	}

	// The verification links embed the port, so pick it before wiring anything.
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

	// Local mode: the HTTP API is reachable without a token
	apiServer := api.NewAPIServer(svcs.Negotiation, svcs.Payments, api.ServerConfig{
		Webhook: middleware.WebhookConfig{
			Secret:    cfg.WebhookSecret,
			Tolerance: cfg.WebhookTolerance,
		},
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		VerifyBaseURL:      verifyBaseURL,
	})
	apiServer.SetupRoutes()

	startedPort, err := apiServer.Start(&port)
	if err != nil {
		return nil, 0, err
	}

	mcpServer := mcp.NewMCPServer(svcs.Negotiation, svcs.Payments, verifyBaseURL)
	apiServer.SetMCPServer(mcpServer)

	return apiServer, startedPort, nil
}

func main() {
	var showVersion = flag.Bool("version", false, "Show version information")
	var showHelp = flag.Bool("help", false, "Show help information")
	var enableLog = flag.Bool("log", false, "Enable logging output")
	flag.Parse()

	// stdout belongs to the MCP transport
	if !*enableLog {
		log.SetOutput(io.Discard)
	}

	if *showVersion {
		fmt.Fprintf(os.Stderr, "ActionKeeper MCP Server\n")
		fmt.Fprintf(os.Stderr, "Version: %s\n", Version)
		fmt.Fprintf(os.Stderr, "Commit: %s\n", CommitHash)
		fmt.Fprintf(os.Stderr, "Built: %s\n", BuildTime)
		return
	}

	if *showHelp {
		fmt.Fprintf(os.Stderr, "ActionKeeper MCP Server\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fmt.Fprintf(os.Stderr, "  --version    Show version information\n")
		fmt.Fprintf(os.Stderr, "  --help       Show this help message\n")
		fmt.Fprintf(os.Stderr, "  --log        Enable logging output\n\n")
		fmt.Fprintf(os.Stderr, "Description:\n")
		fmt.Fprintf(os.Stderr, "  Hash-certified agreements with payment-gated creation and two-party negotiation.\n")
		fmt.Fprintf(os.Stderr, "  Exposes the agreement tools over MCP stdio and the REST API on a local port.\n\n")
		fmt.Fprintf(os.Stderr, "Database: $DB_PATH or ~/actionkeeper.db (SQLite), POSTGRES_URL when set\n")
		fmt.Fprintf(os.Stderr, "Web Interface: http://localhost:[random-port]/api/v1\n")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal("Failed to load config:", err)
	}

	meterProvider, err := telemetry.Setup(context.Background(), telemetry.Config{
		ServiceName:    "actionkeeper-stdio",
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
	})
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal("Failed to initialize telemetry:", err)
	}

	dbService, err := server.OpenDatabase(cfg)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal("Failed to initialize database:", err)
	}
	defer dbService.Close()

	apiServer, port, err := configureAndStartServer(dbService, 0)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal("Failed to start API server:", err)
	}

	log.Printf("API server started on port %d\n", port)

	mcpServer := apiServer.GetMCPServer()
	if mcpServer == nil {
		log.Fatal("MCP server not found")
	}

	go func() {
		if err := mcpServer.StartStdioServer(); err != nil {
			log.SetOutput(os.Stderr)
			log.SetFlags(0)
			log.Fatal("Failed to start MCP server:", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("\nShutting down servers...")

	if err := apiServer.Shutdown(); err != nil {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
		log.Printf("Error shutting down API server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down meter provider: %v", err)
	}

	log.Println("Servers shut down successfully")
}
