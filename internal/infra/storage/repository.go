// Package storage defines the persistence contracts of the booking
// pipeline.
package storage

import (
	"context"
	"time"
)

// BookingRecord is one confirmed booking, kept for auditing.
type BookingRecord struct {
	RunID              string    `db:"run_id"`
	BeneficiaryID      string    `db:"beneficiary_id"`
	CenterID           int       `db:"center_id"`
	CenterName         string    `db:"center_name"`
	SessionID          string    `db:"session_id"`
	Slot               string    `db:"slot"`
	Date               string    `db:"date"`
	Vaccine            string    `db:"vaccine"`
	Dose               int       `db:"dose"`
	ConfirmationNumber string    `db:"confirmation_number"`
	CreatedAt          time.Time `db:"created_at"`
}

// HistoryRepository records confirmed bookings.
type HistoryRepository interface {
	Record(ctx context.Context, rec BookingRecord) error
	Recent(ctx context.Context, limit int) ([]BookingRecord, error)
}

// NopHistory discards records. Used when no database is configured.
type NopHistory struct{}

func (NopHistory) Record(ctx context.Context, rec BookingRecord) error { return nil }

func (NopHistory) Recent(ctx context.Context, limit int) ([]BookingRecord, error) {
	return nil, nil
}
