package models

const (
	OrderStatusCompleted = "completed"

	BookingStatusRequested = "requested"
	BookingStatusConfirmed = "confirmed"
	BookingStatusArrived   = "arrived"
	BookingStatusSeated    = "seated"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"

	RefundStatusSucceeded = "succeeded"
)

// BookingSuccessStatuses are the booking states that count as revenue
var BookingSuccessStatuses = []string{
	BookingStatusConfirmed,
	BookingStatusArrived,
	BookingStatusSeated,
	BookingStatusCompleted,
}

const (
	FeePayerCustomer = "customer"
	FeePayerBusiness = "business"
)
