package api

import (
	"fmt"
	"log"
	"net"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rxtech-lab/actionkeeper/internal/api/middleware"
	"github.com/rxtech-lab/actionkeeper/internal/mcp"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

// ServerConfig carries the HTTP-boundary settings.
type ServerConfig struct {
	Auth               middleware.AuthConfig
	Webhook            middleware.WebhookConfig
	RateLimitPerMinute int
	VerifyBaseURL      string
}

type APIServer struct {
	app         *fiber.App
	negotiation services.NegotiationService
	payments    services.PaymentService
	config      ServerConfig
	limiter     *middleware.RateLimiter
	validate    *validator.Validate
	mcpServer   *mcp.MCPServer
	port        int
}

func NewAPIServer(negotiation services.NegotiationService, payments services.PaymentService, config ServerConfig) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	return &APIServer{
		app:         app,
		negotiation: negotiation,
		payments:    payments,
		config:      config,
		limiter:     middleware.NewRateLimiter(config.RateLimitPerMinute),
		validate:    validator.New(),
	}
}

// SetupRoutes registers the health check and the /api/v1 surface.
func (s *APIServer) SetupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	auth := middleware.AuthMiddleware(s.config.Auth)
	v1 := s.app.Group("/api/v1", s.limiter.Handler())

	// Payments
	v1.Post("/payments/checkout", auth, s.handleCreateCheckout)
	v1.Post("/payments/webhook", middleware.WebhookAuth(s.config.Webhook), s.handlePaymentWebhook)
	v1.Get("/payments/:id", auth, s.handleGetPayment)

	// Agreements
	v1.Post("/agreements", auth, s.handleCreateAgreement)
	v1.Get("/agreements", auth, s.handleListAgreements)
	v1.Get("/agreements/:id", auth, s.handleGetAgreement)
	v1.Post("/agreements/:id/counter", auth, s.handleCounterAgreement)
	v1.Post("/agreements/:id/accept", auth, s.handleAcceptAgreement)
	v1.Post("/agreements/:id/decline", auth, s.handleDeclineAgreement)
	v1.Get("/agreements/:id/events", auth, s.handleListEvents)
	v1.Get("/agreements/:id/revisions", auth, s.handleListRevisions)
	v1.Get("/agreements/:id/artifact", auth, s.handleGetArtifact)

	// Public verification
	v1.Get("/verify", s.handleVerifyQuery)
	v1.Post("/verify", s.handleVerifyBody)
	v1.Get("/verify/by-hash/:hash", s.handleLookupByHash)
}

// EnableStreamableHttp mounts the MCP streamable HTTP transport on /mcp behind the auth middleware.
func (s *APIServer) EnableStreamableHttp() {
	if s.mcpServer == nil {
		log.Printf("MCP server not set, /mcp is not mounted")
		return
	}

	handler := adaptor.HTTPHandler(s.mcpServer.StreamableHTTPHandler())
	auth := middleware.AuthMiddleware(s.config.Auth)
	s.app.All("/mcp", auth, handler)
	s.app.All("/mcp/*", auth, handler)
}

// FindAvailablePort asks the kernel for a free TCP port.
func FindAvailablePort() (int, error) {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, fmt.Errorf("failed to find available port: %w", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// Start starts the server on port, or on a random available port when port is nil.
func (s *APIServer) Start(port *int) (int, error) {
	if port == nil || *port == 0 {
		found, err := FindAvailablePort()
		if err != nil {
			return 0, err
		}
		port = &found
	}
	s.port = *port

	go func() {
		if err := s.app.Listen(fmt.Sprintf(":%d", s.port)); err != nil {
			log.Printf("Error starting API server: %v\n", err)
		}
	}()

	return s.port, nil
}

func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

func (s *APIServer) GetPort() int {
	return s.port
}

// GetFiberApp exposes the underlying app for adaptors and tests.
func (s *APIServer) GetFiberApp() *fiber.App {
	return s.app
}

// ResetRateLimits forgets all per-client rate limit state.
func (s *APIServer) ResetRateLimits() {
	s.limiter.Reset()
}

// SetMCPServer sets the MCP server instance
func (s *APIServer) SetMCPServer(mcpServer *mcp.MCPServer) {
	s.mcpServer = mcpServer
}

// GetMCPServer returns the MCP server instance
func (s *APIServer) GetMCPServer() *mcp.MCPServer {
	return s.mcpServer
}
