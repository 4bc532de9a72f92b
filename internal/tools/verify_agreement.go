package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

func NewVerifyAgreementTool(negotiationService services.NegotiationService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("verify_agreement",
		mcp.WithDescription("Compare a hash against the agreement's stored hash. Every check is recorded in the audit trail, valid or not."),
		mcp.WithString("agreement_id",
			mcp.Required(),
			mcp.Description("ID of the agreement"),
		),
		mcp.WithString("hash",
			mcp.Required(),
			mcp.Description("Lowercase hex SHA-256 to verify"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		agreementID, err := request.RequireString("agreement_id")
		if err != nil {
			return nil, fmt.Errorf("agreement_id parameter is required: %w", err)
		}
		hash, err := request.RequireString("hash")
		if err != nil {
			return nil, fmt.Errorf("hash parameter is required: %w", err)
		}

		result, err := negotiationService.VerifyAgreement(ctx, agreementID, hash)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult("Verification result: ", result)
	}

	return tool, handler
}
