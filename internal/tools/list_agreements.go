package tools

import (
	"context"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

func NewListAgreementsTool(negotiationService services.NegotiationService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("list_agreements",
		mcp.WithDescription("List agreements newest first with limit/offset pagination."),
		mcp.WithString("limit",
			mcp.Description("Number of agreements to return (default: 50, max: 200)"),
		),
		mcp.WithString("offset",
			mcp.Description("Number of agreements to skip (default: 0)"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit, err := strconv.Atoi(request.GetString("limit", strconv.Itoa(services.DefaultListLimit)))
		if err != nil {
			limit = services.DefaultListLimit
		}
		offset, err := strconv.Atoi(request.GetString("offset", "0"))
		if err != nil {
			offset = 0
		}
		limit, offset = services.ClampPage(limit, offset)

		agreements, err := negotiationService.ListAgreements(ctx, limit, offset)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult("Agreements list: ", map[string]interface{}{
			"agreements": agreements,
			"pagination": map[string]interface{}{
				"limit":  limit,
				"offset": offset,
				"count":  len(agreements),
			},
		})
	}

	return tool, handler
}
