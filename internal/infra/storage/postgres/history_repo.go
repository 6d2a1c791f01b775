package postgres

import (
	"context"
	"fmt"

	"github.com/vietddude/slotbot/internal/infra/storage"
)

// HistoryRepo implements storage.HistoryRepository using PostgreSQL.
type HistoryRepo struct {
	db *DB
}

// NewHistoryRepo creates a new PostgreSQL history repository.
func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Record inserts one confirmed booking.
func (r *HistoryRepo) Record(ctx context.Context, rec storage.BookingRecord) error {
	const q = `
		INSERT INTO booking_history (
			run_id, beneficiary_id, center_id, center_name, session_id,
			slot, date, vaccine, dose, confirmation_number, created_at
		) VALUES (
			:run_id, :beneficiary_id, :center_id, :center_name, :session_id,
			:slot, :date, :vaccine, :dose, :confirmation_number, :created_at
		)`
	if _, err := r.db.NamedExecContext(ctx, q, rec); err != nil {
		return fmt.Errorf("failed to record booking: %w", err)
	}
	return nil
}

// Recent returns the most recent bookings, newest first.
func (r *HistoryRepo) Recent(ctx context.Context, limit int) ([]storage.BookingRecord, error) {
	const q = `
		SELECT run_id, beneficiary_id, center_id, center_name, session_id,
		       slot, date, vaccine, dose, confirmation_number, created_at
		FROM booking_history
		ORDER BY created_at DESC
		LIMIT $1`
	var out []storage.BookingRecord
	if err := r.db.SelectContext(ctx, &out, q, limit); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return out, nil
}
