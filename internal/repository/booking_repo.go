package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"clinic-api/internal/domain"
)

// BookingRepository define el contrato de persistencia para citas.
// El sistema solo escribe bookings; no hay lecturas en la superficie actual.
type BookingRepository interface {
	Create(ctx context.Context, booking domain.Booking) error
}

// PgBookingRepository implementa BookingRepository usando pgxpool.
type PgBookingRepository struct {
	pool *pgxpool.Pool
}

func NewPgBookingRepository(pool *pgxpool.Pool) *PgBookingRepository {
	return &PgBookingRepository{pool: pool}
}

func (r *PgBookingRepository) Create(ctx context.Context, booking domain.Booking) error {
	const query = `
		INSERT INTO bookings (id, name, address, speciality, date, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		booking.ID,
		booking.Name,
		booking.Address,
		booking.Speciality,
		booking.Date,
		booking.Phone,
		booking.CreatedAt,
	)
	return err
}
