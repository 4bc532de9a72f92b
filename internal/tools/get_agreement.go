package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

func NewGetAgreementTool(negotiationService services.NegotiationService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_agreement",
		mcp.WithDescription("Get an agreement by ID, including its negotiation state, pending terms and current hash."),
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

		agreement, err := negotiationService.GetAgreement(ctx, agreementID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult("Agreement: ", agreement)
	}

	return tool, handler
}
