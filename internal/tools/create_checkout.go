package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

type CreateCheckoutArguments struct {
	AmountCents int64       `json:"amount_cents" validate:"required,gt=0"`
	Currency    string      `json:"currency,omitempty" validate:"omitempty,max=10"`
	Metadata    models.JSON `json:"metadata,omitempty"`
}

func NewCreateCheckoutTool(paymentService services.PaymentService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("create_checkout",
		mcp.WithDescription("Create a pending payment and return its checkout link. An agreement can only be created once its payment is paid."),
		mcp.WithNumber("amount_cents",
			mcp.Required(),
			mcp.Description("Amount to charge in cents, must be positive"),
		),
		mcp.WithString("currency",
			mcp.Description("ISO currency code (default: usd)"),
		),
		mcp.WithObject("metadata",
			mcp.Description("Optional free-form metadata stored with the payment"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args CreateCheckoutArguments
		if result, err := bindAndValidate(request, &args); result != nil || err != nil {
			return result, err
		}

		session, err := paymentService.CreateCheckoutSession(args.AmountCents, args.Currency, args.Metadata)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult("Checkout session created: ", map[string]interface{}{
			"payment_id":   session.Payment.ID,
			"checkout_url": session.CheckoutURL,
			"status":       session.Payment.Status,
		})
	}

	return tool, handler
}
