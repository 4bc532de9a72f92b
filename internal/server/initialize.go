package server

import (
	"fmt"
	"log"

	"github.com/rxtech-lab/actionkeeper/internal/blobstore"
	"github.com/rxtech-lab/actionkeeper/internal/config"
	"github.com/rxtech-lab/actionkeeper/internal/hooks"
	"github.com/rxtech-lab/actionkeeper/internal/receipt"
	"github.com/rxtech-lab/actionkeeper/internal/services"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

// Services is the wired service graph shared by the HTTP API and the MCP tools.
type Services struct {
	Agreements  services.AgreementService
	Events      services.EventService
	Revisions   services.RevisionService
	Payments    services.PaymentService
	Artifacts   services.ArtifactService
	Hooks       services.HookService
	Negotiation services.NegotiationService
}

// Options are the collaborators that differ between deployments and tests.
type Options struct {
	Store              blobstore.Store
	Renderer           receipt.Renderer
	VerifyBaseURL      string
	PaymentBypassToken string
	Clock              services.Clock
	IDs                services.IDGenerator
	MeterProvider      metric.MeterProvider
}

// OpenDatabase connects to Postgres when POSTGRES_URL is set and falls back to SQLite at DB_PATH.
func OpenDatabase(cfg *config.Config) (services.DBService, error) {
	if cfg.PostgresURL != "" {
		return services.NewPostgresDBService(cfg.PostgresURL)
	}
	log.Printf("POSTGRES_URL not set, using SQLite at %s", cfg.DBPath)
	return services.NewSqliteDBService(cfg.DBPath)
}

func InitializeServices(db *gorm.DB, opts Options) (*Services, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if opts.Renderer == nil {
		opts.Renderer = receipt.NewPDFRenderer()
	}

	svcs := &Services{
		Agreements: services.NewAgreementService(db),
		Events:     services.NewEventService(db, opts.Clock),
		Revisions:  services.NewRevisionService(db, opts.Clock),
		Payments:   services.NewPaymentService(db, opts.Clock),
		Artifacts:  services.NewArtifactService(db, opts.Renderer, opts.Store, opts.VerifyBaseURL, opts.Clock),
		Hooks:      services.NewHookService(),
	}

	negotiation, err := services.NewNegotiationService(services.NegotiationDeps{
		DB:                 db,
		Clock:              opts.Clock,
		IDs:                opts.IDs,
		Agreements:         svcs.Agreements,
		Events:             svcs.Events,
		Payments:           svcs.Payments,
		Revisions:          svcs.Revisions,
		Artifacts:          svcs.Artifacts,
		Hooks:              svcs.Hooks,
		MeterProvider:      opts.MeterProvider,
		PaymentBypassToken: opts.PaymentBypassToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize negotiation service: %w", err)
	}
	svcs.Negotiation = negotiation

	return svcs, nil
}

func InitializeHooks(svcs *Services, bypassToken string) (services.Hook, services.Hook) {
	paymentLinkHook := hooks.NewPaymentLinkHook(svcs.Payments, bypassToken)
	receiptHook := hooks.NewReceiptHook(svcs.Artifacts)

	return paymentLinkHook, receiptHook
}

// RegisterHooks registers the payment link hook ahead of the receipt hook.
func RegisterHooks(hookService services.HookService, paymentLinkHook services.Hook, receiptHook services.Hook) {
	if err := hookService.AddHook(paymentLinkHook); err != nil {
		log.Fatal("Failed to register payment link hook:", err)
	}
	if err := hookService.AddHook(receiptHook); err != nil {
		log.Fatal("Failed to register receipt hook:", err)
	}
}
