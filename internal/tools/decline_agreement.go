package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

func NewDeclineAgreementTool(negotiationService services.NegotiationService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("decline_agreement",
		mcp.WithDescription("Decline the agreement as one party. Declined agreements are cancelled and cannot be negotiated further."),
		mcp.WithString("agreement_id",
			mcp.Required(),
			mcp.Description("ID of the agreement to decline"),
		),
		mcp.WithString("decliner_label",
			mcp.Required(),
			mcp.Description("Label of the declining party; must match party A or party B"),
		),
		mcp.WithString("reason",
			mcp.Description("Optional reason recorded in the audit trail"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		agreementID, err := request.RequireString("agreement_id")
		if err != nil {
			return nil, fmt.Errorf("agreement_id parameter is required: %w", err)
		}
		declinerLabel, err := request.RequireString("decliner_label")
		if err != nil {
			return nil, fmt.Errorf("decliner_label parameter is required: %w", err)
		}

		var reason *string
		if r := request.GetString("reason", ""); r != "" {
			reason = &r
		}

		agreement, err := negotiationService.DeclineAgreement(ctx, agreementID, declinerLabel, reason)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult("Agreement declined: ", agreement)
	}

	return tool, handler
}
