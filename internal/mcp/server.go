package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/actionkeeper/internal/services"
	"github.com/rxtech-lab/actionkeeper/internal/tools"
)

type MCPServer struct {
	server      *server.MCPServer
	negotiation services.NegotiationService
	payments    services.PaymentService
}

func NewMCPServer(negotiation services.NegotiationService, payments services.PaymentService, verifyBaseURL string) *MCPServer {
	mcpServer := &MCPServer{
		negotiation: negotiation,
		payments:    payments,
	}
	mcpServer.InitializeTools(verifyBaseURL)
	return mcpServer
}

func (s *MCPServer) InitializeTools(verifyBaseURL string) {
	srv := server.NewMCPServer(
		"ActionKeeper MCP Server",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv.AddPrompt(mcp.NewPrompt("actionkeeper-usage",
		mcp.WithPromptDescription("Instructions and guidance for using the agreement tools"),
		mcp.WithArgument("tool_category",
			mcp.ArgumentDescription("Category of tools to get instructions for (payments, negotiation, verification, or all)"),
			mcp.RequiredArgument(),
		),
	), func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		category := request.Params.Arguments["tool_category"]
		if category == "" {
			return nil, fmt.Errorf("tool_category is required")
		}

		return mcp.NewGetPromptResult(
			fmt.Sprintf("ActionKeeper Tools - %s", category),
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(
					mcp.RoleUser,
					mcp.NewTextContent(getToolInstructions(category)),
				),
			},
		), nil
	})

	// Payment Tools
	createCheckoutTool, createCheckoutHandler := tools.NewCreateCheckoutTool(s.payments)
	srv.AddTool(createCheckoutTool, createCheckoutHandler)

	// Negotiation Tools
	createAgreementTool, createAgreementHandler := tools.NewCreateAgreementTool(s.negotiation, verifyBaseURL)
	srv.AddTool(createAgreementTool, createAgreementHandler)

	counterAgreementTool, counterAgreementHandler := tools.NewCounterAgreementTool(s.negotiation)
	srv.AddTool(counterAgreementTool, counterAgreementHandler)

	acceptAgreementTool, acceptAgreementHandler := tools.NewAcceptAgreementTool(s.negotiation)
	srv.AddTool(acceptAgreementTool, acceptAgreementHandler)

	declineAgreementTool, declineAgreementHandler := tools.NewDeclineAgreementTool(s.negotiation)
	srv.AddTool(declineAgreementTool, declineAgreementHandler)

	// Read-only Tools
	getAgreementTool, getAgreementHandler := tools.NewGetAgreementTool(s.negotiation)
	srv.AddTool(getAgreementTool, getAgreementHandler)

	listAgreementsTool, listAgreementsHandler := tools.NewListAgreementsTool(s.negotiation)
	srv.AddTool(listAgreementsTool, listAgreementsHandler)

	listEventsTool, listEventsHandler := tools.NewListAgreementEventsTool(s.negotiation)
	srv.AddTool(listEventsTool, listEventsHandler)

	// Verification Tools
	verifyTool, verifyHandler := tools.NewVerifyAgreementTool(s.negotiation)
	srv.AddTool(verifyTool, verifyHandler)

	lookupTool, lookupHandler := tools.NewLookupAgreementByHashTool(s.negotiation)
	srv.AddTool(lookupTool, lookupHandler)

	s.server = srv
}

// GetServer returns the underlying mcp-go server.
func (s *MCPServer) GetServer() *server.MCPServer {
	return s.server
}

// StartStdioServer serves MCP over stdin/stdout until the input closes.
func (s *MCPServer) StartStdioServer() error {
	return server.ServeStdio(s.server)
}

// StreamableHTTPHandler returns the streamable HTTP transport for mounting under /mcp.
func (s *MCPServer) StreamableHTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.server)
}

func getToolInstructions(category string) string {
	switch category {
	case "payments":
		return `Payment Tools:

1. create_checkout
   - Creates a pending payment and returns checkout_url
   - The payment must be marked paid by the provider webhook before create_agreement succeeds`

	case "negotiation":
		return `Negotiation Tools:

1. create_agreement
   - Requires terms_version, terms and a paid payment_id
   - negotiation_action: counter (pending terms), accepted (awaiting confirmations), otherwise draft
   - Returns the agreement and its verification_url

2. counter_agreement
   - Stores the proposed terms as pending terms and clears both confirmations
   - The stored hash is unchanged until the counter-offer is accepted

3. accept_agreement
   - accepter_label must match party A or party B
   - The agreement is accepted once both parties have confirmed

4. decline_agreement
   - Cancels the agreement; no further negotiation is possible`

	case "verification":
		return `Verification Tools:

1. verify_agreement
   - Compares a hash with the stored hash and records a hash_verified event

2. lookup_agreement_by_hash
   - Finds the agreement carrying a hash

3. get_agreement, list_agreements, list_agreement_events
   - Read-only access to agreements and their audit trail`

	case "all":
		return `ActionKeeper MCP Tools Overview:

PAYMENTS (1 tool):
- create_checkout: Start a payment for a new agreement

NEGOTIATION (4 tools):
- create_agreement: Create an agreement behind a paid payment
- counter_agreement: Propose counter terms
- accept_agreement: Confirm as party A or B
- decline_agreement: Cancel the agreement

READ-ONLY (3 tools):
- get_agreement, list_agreements, list_agreement_events

VERIFICATION (2 tools):
- verify_agreement: Check a hash against the stored hash
- lookup_agreement_by_hash: Find an agreement by hash

Every state change is recorded in an append-only audit trail.`

	default:
		return `Invalid category. Available categories: payments, negotiation, verification, all`
	}
}
