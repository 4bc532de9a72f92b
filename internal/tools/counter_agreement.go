package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

type CounterAgreementArguments struct {
	AgreementID   string      `json:"agreement_id" validate:"required"`
	ProposerLabel string      `json:"proposer_label" validate:"required"`
	Terms         models.JSON `json:"terms" validate:"required"`
	CounterNotes  *string     `json:"counter_notes,omitempty"`

	OverrideArguments
}

func NewCounterAgreementTool(negotiationService services.NegotiationService) (mcp.Tool, server.ToolHandlerFunc) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Propose counter terms. The counter-offer is stored as pending terms, both confirmations are cleared and the stored hash keeps certifying the committed terms until acceptance."),
		mcp.WithString("agreement_id",
			mcp.Required(),
			mcp.Description("ID of the agreement to counter"),
		),
		mcp.WithString("proposer_label",
			mcp.Required(),
			mcp.Description("Label of the party making the counter-offer"),
		),
		mcp.WithObject("terms",
			mcp.Required(),
			mcp.Description("The full proposed terms"),
		),
		mcp.WithString("counter_notes",
			mcp.Description("Optional notes explaining the counter-offer"),
		),
	}
	tool := mcp.NewTool("counter_agreement", append(opts, overrideParams()...)...)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args CounterAgreementArguments
		if result, err := bindAndValidate(request, &args); result != nil || err != nil {
			return result, err
		}

		overrides, err := args.toStructuredFields()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		agreement, err := negotiationService.ProposeCounter(ctx, args.AgreementID, services.CounterRequest{
			ProposerLabel: args.ProposerLabel,
			Terms:         args.Terms,
			Notes:         args.CounterNotes,
			Overrides:     overrides,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult("Counter-offer recorded: ", agreement)
	}

	return tool, handler
}
