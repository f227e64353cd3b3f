package reporting

import (
	"strings"

	"ms-reporting/internal/models"

	"github.com/shopspring/decimal"
)

// FeePayer fixes who economically bears one fee on one transaction
type FeePayer string

const (
	PayerCustomer FeePayer = models.FeePayerCustomer
	PayerBusiness FeePayer = models.FeePayerBusiness
)

// ResolvePayer maps a stored payer value to a FeePayer. Rows written before
// payer tracking existed carry no value and were charged to the customer.
func ResolvePayer(raw string) FeePayer {
	if strings.EqualFold(strings.TrimSpace(raw), models.FeePayerBusiness) {
		return PayerBusiness
	}
	return PayerCustomer
}

// Breakdown is the canonical decomposition of one order or booking.
// CustomerPaidFees + BusinessPaidFees always equals PlatformFee + StripeFee.
type Breakdown struct {
	Subtotal         decimal.Decimal
	Tax              decimal.Decimal
	PlatformFee      decimal.Decimal
	StripeFee        decimal.Decimal
	CustomerPaidFees decimal.Decimal
	BusinessPaidFees decimal.Decimal
	NetToBusiness    decimal.Decimal
}

// Fees returns platform plus processor fee
func (b Breakdown) Fees() decimal.Decimal {
	return b.PlatformFee.Add(b.StripeFee)
}

// NormalizeOrder decomposes a ticket order. The stored total already holds
// tax and customer-paid fees, so the subtotal is what remains after removing
// them; both fees come off the charge whoever bears them.
func NormalizeOrder(o models.Order) Breakdown {
	total := money(o.Total)
	b := Breakdown{
		Tax:         money(o.TaxAmount),
		PlatformFee: money(o.PlatformFee),
		StripeFee:   money(o.StripeFee),
	}
	b.CustomerPaidFees, b.BusinessPaidFees = splitFees(b.PlatformFee, b.StripeFee, o.PlatformFeePayer, o.StripeFeePayer)
	b.Subtotal = total.Sub(b.Tax).Sub(b.CustomerPaidFees)
	b.NetToBusiness = total.Sub(b.PlatformFee).Sub(b.StripeFee)
	return b
}

// NormalizeBooking decomposes a table booking. The stored amount is the base
// price; tax and fees sit beside it.
func NormalizeBooking(tb models.TableBooking) Breakdown {
	b := Breakdown{
		Subtotal:    money(tb.Amount),
		Tax:         money(tb.TaxAmount),
		PlatformFee: money(tb.PlatformFee),
		StripeFee:   money(tb.StripeFee),
	}
	b.CustomerPaidFees, b.BusinessPaidFees = splitFees(b.PlatformFee, b.StripeFee, tb.PlatformFeePayer, tb.StripeFeePayer)
	b.NetToBusiness = b.Subtotal.Add(b.Tax).Sub(b.BusinessPaidFees)
	return b
}

// splitFees assigns each fee to its own payer independently
func splitFees(platformFee, stripeFee decimal.Decimal, platformPayer, stripePayer string) (customer, business decimal.Decimal) {
	customer, business = decimal.Zero, decimal.Zero

	if ResolvePayer(platformPayer) == PayerBusiness {
		business = business.Add(platformFee)
	} else {
		customer = customer.Add(platformFee)
	}

	if ResolvePayer(stripePayer) == PayerBusiness {
		business = business.Add(stripeFee)
	} else {
		customer = customer.Add(stripeFee)
	}

	return customer, business
}

func money(a models.Amount) decimal.Decimal {
	return decimal.NewFromFloat(a.Float64())
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
