package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

func NewListAgreementEventsTool(negotiationService services.NegotiationService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("list_agreement_events",
		mcp.WithDescription("List the audit trail of an agreement, oldest first."),
		mcp.WithString("agreement_id",
			mcp.Required(),
			mcp.Description("ID of the agreement"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		agreementID, err := request.RequireString("agreement_id")
		if err != nil {
			return nil, fmt.Errorf("agreement_id parameter is required: %w", err)
		}

		events, err := negotiationService.ListEvents(ctx, agreementID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult("Agreement events: ", events)
	}

	return tool, handler
}
