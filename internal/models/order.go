package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order is a ticket transaction written by the payment webhook.
// Total is the charged amount and already contains tax and any
// customer-paid fees.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID               string    `bun:"id,pk" json:"id"`
	EventID          string    `bun:"event_id,notnull" json:"event_id"`
	Quantity         int       `bun:"quantity" json:"quantity"`
	Total            Amount    `bun:"total,type:numeric" json:"total"`
	Subtotal         Amount    `bun:"subtotal,type:numeric" json:"subtotal"`
	DiscountAmount   Amount    `bun:"discount_amount,type:numeric" json:"discount_amount"`
	TaxAmount        Amount    `bun:"tax_amount,type:numeric" json:"tax_amount"`
	PlatformFee      Amount    `bun:"platform_fee,type:numeric" json:"platform_fee"`
	StripeFee        Amount    `bun:"stripe_fee,type:numeric" json:"stripe_fee"`
	PlatformFeePayer string    `bun:"platform_fee_payer,nullzero" json:"platform_fee_payer,omitempty"`
	StripeFeePayer   string    `bun:"stripe_fee_payer,nullzero" json:"stripe_fee_payer,omitempty"`
	Status           string    `bun:"status,notnull" json:"status"`
	TrackingRef      string    `bun:"tracking_ref,nullzero" json:"tracking_ref,omitempty"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"created_at"`

	Event *Event `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
}
