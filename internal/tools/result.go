package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

var validate = validator.New()

// jsonResult renders v as the second text block after a short label, the shape every tool returns.
func jsonResult(label string, v interface{}) (*mcp.CallToolResult, error) {
	resultJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error encoding result: %v", err)), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(label),
			mcp.NewTextContent(string(resultJSON)),
		},
	}, nil
}

// bindAndValidate decodes the tool arguments into args and runs struct validation.
// A decode failure is a protocol error; a validation failure is a tool error result.
func bindAndValidate(request mcp.CallToolRequest, args interface{}) (*mcp.CallToolResult, error) {
	if err := request.BindArguments(args); err != nil {
		return nil, fmt.Errorf("failed to bind arguments: %w", err)
	}
	if err := validate.Struct(args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
	}
	return nil, nil
}

func parseDay(name string, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD", name)
	}
	return &t, nil
}

// OverrideArguments are the structured field overrides shared by create_agreement and counter_agreement.
type OverrideArguments struct {
	StakePercent     *float64   `json:"stake_percent,omitempty"`
	BuyInAmountCents *int64     `json:"buy_in_amount_cents,omitempty"`
	PayoutBasis      *string    `json:"payout_basis,omitempty"`
	BulletCap        *int       `json:"bullet_cap,omitempty"`
	EventDate        string     `json:"event_date,omitempty"`
	DueDate          string     `json:"due_date,omitempty"`
	FundsLoggedAt    *time.Time `json:"funds_logged_at,omitempty"`
}

func (o OverrideArguments) toStructuredFields() (services.StructuredFields, error) {
	eventDate, err := parseDay("event_date", o.EventDate)
	if err != nil {
		return services.StructuredFields{}, err
	}
	dueDate, err := parseDay("due_date", o.DueDate)
	if err != nil {
		return services.StructuredFields{}, err
	}
	return services.StructuredFields{
		StakePercent:     o.StakePercent,
		BuyInAmountCents: o.BuyInAmountCents,
		BulletCap:        o.BulletCap,
		PayoutBasis:      o.PayoutBasis,
		EventDate:        eventDate,
		DueDate:          dueDate,
		FundsLoggedAt:    o.FundsLoggedAt,
	}, nil
}

func overrideParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("stake_percent",
			mcp.Description("Override for the stake percentage"),
		),
		mcp.WithNumber("buy_in_amount_cents",
			mcp.Description("Override for the buy-in amount in cents"),
		),
		mcp.WithString("payout_basis",
			mcp.Description("Override for the payout basis (default: gross_payout)"),
		),
		mcp.WithNumber("bullet_cap",
			mcp.Description("Override for the bullet cap"),
		),
		mcp.WithString("event_date",
			mcp.Description("Override for the event date (YYYY-MM-DD)"),
		),
		mcp.WithString("due_date",
			mcp.Description("Override for the due date (YYYY-MM-DD)"),
		),
	}
}
