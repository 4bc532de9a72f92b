package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

func NewLookupAgreementByHashTool(negotiationService services.NegotiationService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("lookup_agreement_by_hash",
		mcp.WithDescription("Find the agreement whose stored hash equals the given hash. Lookups are not recorded in the audit trail."),
		mcp.WithString("hash",
			mcp.Required(),
			mcp.Description("Lowercase hex SHA-256"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		hash, err := request.RequireString("hash")
		if err != nil {
			return nil, fmt.Errorf("hash parameter is required: %w", err)
		}

		agreement, err := negotiationService.LookupByHash(ctx, hash)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult("Agreement found: ", map[string]interface{}{
			"found":          true,
			"agreement_id":   agreement.ID,
			"hash":           agreement.Hash,
			"hash_version":   agreement.HashVersion,
			"agreement_type": agreement.AgreementType,
			"status":         agreement.Status,
			"created_at":     agreement.CreatedAt,
		})
	}

	return tool, handler
}
