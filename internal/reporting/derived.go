package reporting

import "github.com/shopspring/decimal"

// Derived holds the display figures shown next to every summary
type Derived struct {
	Gross float64 `json:"gross"`
	Net   float64 `json:"net"`
	Total float64 `json:"total"`
}

// Gross is subtotal plus tax; fees are never part of it
func Gross(subtotal, tax decimal.Decimal) decimal.Decimal {
	return subtotal.Add(tax)
}

// Net is what the business keeps before tax pass-through
func Net(subtotal, businessPaidFees, refunds decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(businessPaidFees).Sub(refunds)
}

// Total is what the business actually receives, tax included
func Total(gross, businessPaidFees, refunds decimal.Decimal) decimal.Decimal {
	return gross.Sub(businessPaidFees).Sub(refunds)
}

// Derive computes all three figures from one set of inputs
func Derive(subtotal, tax, businessPaidFees, refunds decimal.Decimal) Derived {
	gross := Gross(subtotal, tax)
	return Derived{
		Gross: toFloat(gross),
		Net:   toFloat(Net(subtotal, businessPaidFees, refunds)),
		Total: toFloat(Total(gross, businessPaidFees, refunds)),
	}
}
