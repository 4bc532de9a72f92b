package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/services"
	"github.com/rxtech-lab/actionkeeper/internal/utils"
)

type CreateAgreementArguments struct {
	// Required fields
	TermsVersion string      `json:"terms_version" validate:"required"`
	Terms        models.JSON `json:"terms" validate:"required"`
	PaymentID    string      `json:"payment_id" validate:"required"`

	// Optional fields
	AgreementType     string  `json:"agreement_type,omitempty"`
	ProposerLabel     *string `json:"proposer_label,omitempty"`
	PartyALabel       *string `json:"party_a_label,omitempty"`
	PartyBLabel       *string `json:"party_b_label,omitempty"`
	NegotiationAction string  `json:"negotiation_action,omitempty" validate:"omitempty,oneof=proposed draft counter accepted"`
	CounterNotes      *string `json:"counter_notes,omitempty"`

	OverrideArguments
}

func NewCreateAgreementTool(negotiationService services.NegotiationService, verifyBaseURL string) (mcp.Tool, server.ToolHandlerFunc) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Create an agreement behind a paid payment. Computes the integrity hash, records the creation event and returns the verification link."),
		mcp.WithString("terms_version",
			mcp.Required(),
			mcp.Description("Version label of the terms template"),
		),
		mcp.WithObject("terms",
			mcp.Required(),
			mcp.Description("Free-form terms. Known keys (stake_pct, buy_in_amount, bullet_cap, payout_basis, event_date, due_date, funds_received_at, party_a_label, party_b_label) are mirrored into structured fields"),
		),
		mcp.WithString("payment_id",
			mcp.Required(),
			mcp.Description("ID of a paid payment from create_checkout"),
		),
		mcp.WithString("agreement_type",
			mcp.Description("Agreement type (default: poker_staking)"),
		),
		mcp.WithString("proposer_label",
			mcp.Description("Label of the party proposing the agreement"),
		),
		mcp.WithString("party_a_label",
			mcp.Description("Label of party A"),
		),
		mcp.WithString("party_b_label",
			mcp.Description("Label of party B"),
		),
		mcp.WithString("negotiation_action",
			mcp.Description("Initial state: 'counter' opens a counter-offer, 'accepted' awaits confirmations, anything else is a draft"),
		),
		mcp.WithString("counter_notes",
			mcp.Description("Notes stored on the first revision"),
		),
	}
	tool := mcp.NewTool("create_agreement", append(opts, overrideParams()...)...)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args CreateAgreementArguments
		if result, err := bindAndValidate(request, &args); result != nil || err != nil {
			return result, err
		}

		overrides, err := args.toStructuredFields()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		agreement, err := negotiationService.CreateAgreement(ctx, services.CreateAgreementRequest{
			AgreementType:     args.AgreementType,
			TermsVersion:      args.TermsVersion,
			Terms:             args.Terms,
			PaymentID:         args.PaymentID,
			ProposerLabel:     args.ProposerLabel,
			PartyALabel:       args.PartyALabel,
			PartyBLabel:       args.PartyBLabel,
			NegotiationAction: args.NegotiationAction,
			CounterNotes:      args.CounterNotes,
			Overrides:         overrides,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult("Agreement created: ", map[string]interface{}{
			"agreement":        agreement,
			"verification_url": utils.BuildVerificationURL(agreement.ID, agreement.CurrentHash(), verifyBaseURL),
		})
	}

	return tool, handler
}
