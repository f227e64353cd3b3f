package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TableBooking is a table-service reservation. Amount is the base price;
// fees are never embedded in it.
type TableBooking struct {
	bun.BaseModel `bun:"table:table_bookings,alias:tb"`

	ID               string    `bun:"id,pk" json:"id"`
	EventID          string    `bun:"event_id,notnull" json:"event_id"`
	Amount           Amount    `bun:"amount,type:numeric" json:"amount"`
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
