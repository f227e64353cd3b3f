package main

import (
	"context"
	"fmt"
	"time"

	"ms-reporting/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// tables in dependency order
var tables = []interface{}{
	(*models.Business)(nil),
	(*models.Event)(nil),
	(*models.Order)(nil),
	(*models.TableBooking)(nil),
	(*models.Refund)(nil),
	(*models.TableBookingRefund)(nil),
	(*models.TrackingLink)(nil),
	(*models.PageView)(nil),
}

func dropTables(ctx context.Context, db *bun.DB) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(tables[i]).IfExists().Cascade().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", tables[i], err)
		}
	}
	log.Info("DATABASE", "Dropped reporting source tables")
	return nil
}

func createTables(ctx context.Context, db *bun.DB) error {
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", m, err)
		}
	}
	log.Info("DATABASE", fmt.Sprintf("Created %d tables", len(tables)))
	return nil
}

func seedData(ctx context.Context, db *bun.DB) error {
	now := time.Now().UTC()
	rate := 8.0
	businessID := uuid.New().String()
	eventID := uuid.New().String()
	orderID := uuid.New().String()
	bookingID := uuid.New().String()

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		inserts := []interface{}{
			&models.Business{ID: businessID, Name: "Sample Venue", TaxPercentage: &rate},
			&models.Event{ID: eventID, BusinessID: businessID, Title: "Friday Night Live", EventDate: now.AddDate(0, 0, 7), Status: "published"},
			&models.TrackingLink{ID: uuid.New().String(), BusinessID: businessID, RefCode: "ig_story", Name: "Instagram Story", CreatedAt: now},
			&[]models.Order{
				{
					ID: orderID, EventID: eventID, Quantity: 2, Total: 100, Subtotal: 87, TaxAmount: 8,
					PlatformFee: 5, StripeFee: 3,
					PlatformFeePayer: models.FeePayerCustomer, StripeFeePayer: models.FeePayerBusiness,
					Status: models.OrderStatusCompleted, TrackingRef: "ig_story", CreatedAt: now.AddDate(0, 0, -2),
				},
				{
					ID: uuid.New().String(), EventID: eventID, Quantity: 1, Total: 54.5, Subtotal: 50, TaxAmount: 4,
					PlatformFee: 0.5, Status: models.OrderStatusCompleted, TrackingRef: "ig_story", CreatedAt: now.AddDate(0, 0, -1),
				},
			},
			&models.TableBooking{
				ID: bookingID, EventID: eventID, Amount: 50, TaxAmount: 4, PlatformFee: 2, StripeFee: 1,
				PlatformFeePayer: models.FeePayerBusiness, StripeFeePayer: models.FeePayerBusiness,
				Status: models.BookingStatusConfirmed, TrackingRef: "ig_story", CreatedAt: now.AddDate(0, 0, -1),
			},
			&models.Refund{ID: uuid.New().String(), OrderID: orderID, Amount: 20, Status: models.RefundStatusSucceeded, CreatedAt: now},
			&models.TableBookingRefund{ID: uuid.New().String(), TableBookingID: bookingID, Amount: 10, Status: models.RefundStatusSucceeded, CreatedAt: now},
			&[]models.PageView{
				{ID: uuid.New().String(), BusinessID: businessID, EventID: eventID, PageType: "event", VisitorID: "visitor-1", CreatedAt: now.AddDate(0, 0, -2)},
				{ID: uuid.New().String(), BusinessID: businessID, PageType: "storefront", VisitorID: "visitor-2", CreatedAt: now},
			},
		}
		for _, m := range inserts {
			if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
				return fmt.Errorf("failed to seed %T: %w", m, err)
			}
		}
		log.Info("DATABASE", fmt.Sprintf("Seeded business %s", businessID))
		return nil
	})
}
