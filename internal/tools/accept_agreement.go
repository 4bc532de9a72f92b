package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

func NewAcceptAgreementTool(negotiationService services.NegotiationService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("accept_agreement",
		mcp.WithDescription("Confirm the agreement as one party. Pending counter terms are promoted first. The agreement becomes accepted once both party A and party B have confirmed."),
		mcp.WithString("agreement_id",
			mcp.Required(),
			mcp.Description("ID of the agreement to accept"),
		),
		mcp.WithString("accepter_label",
			mcp.Required(),
			mcp.Description("Label of the accepting party; must match party A or party B"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		agreementID, err := request.RequireString("agreement_id")
		if err != nil {
			return nil, fmt.Errorf("agreement_id parameter is required: %w", err)
		}
		accepterLabel, err := request.RequireString("accepter_label")
		if err != nil {
			return nil, fmt.Errorf("accepter_label parameter is required: %w", err)
		}

		agreement, err := negotiationService.AcceptAgreement(ctx, agreementID, accepterLabel)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult("Acceptance recorded: ", agreement)
	}

	return tool, handler
}
