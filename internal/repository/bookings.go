package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skillora/instructor-os/internal/logger"
	"github.com/skillora/instructor-os/internal/models"
)

// BookingsRepository handles booking request CRUD operations
type BookingsRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewBookingsRepository creates a new bookings repository
func NewBookingsRepository(pool *pgxpool.Pool, log *logger.Logger) *BookingsRepository {
	return &BookingsRepository{
		pool: pool,
		log:  log,
	}
}

// Create creates a new booking request record
func (r *BookingsRepository) Create(ctx context.Context, b *models.Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = models.BookingStatusRequested
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (
			id, slot_id, session_type, offer_price, topic,
			special_requirements, student_name, student_email, student_level, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, b.ID, b.SlotID, b.SessionType, b.OfferPrice, b.Topic,
		b.SpecialRequirements, b.StudentName, b.StudentEmail, b.StudentLevel, b.Status,
	).Scan(&b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	r.log.Info().
		Str("id", b.ID.String()).
		Str("slot_id", b.SlotID).
		Str("session_type", string(b.SessionType)).
		Float64("offer_price", b.OfferPrice).
		Msg("created booking request")

	return nil
}

// GetByID returns a single booking by ID
func (r *BookingsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking

	err := r.pool.QueryRow(ctx, `
		SELECT id, slot_id, session_type, offer_price, topic,
		       special_requirements, student_name, student_email, student_level, status,
		       created_at, updated_at
		FROM bookings
		WHERE id = $1
	`, id).Scan(
		&b.ID, &b.SlotID, &b.SessionType, &b.OfferPrice, &b.Topic,
		&b.SpecialRequirements, &b.StudentName, &b.StudentEmail, &b.StudentLevel, &b.Status,
		&b.CreatedAt, &b.UpdatedAt,
	)

	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return &b, nil
}

// ListBySlot returns all bookings for a slot, newest first
func (r *BookingsRepository) ListBySlot(ctx context.Context, slotID string) ([]*models.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, slot_id, session_type, offer_price, topic,
		       special_requirements, student_name, student_email, student_level, status,
		       created_at, updated_at
		FROM bookings
		WHERE slot_id = $1
		ORDER BY created_at DESC
	`, slotID)
	if err != nil {
		return nil, fmt.Errorf("list bookings by slot: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		var b models.Booking
		err := rows.Scan(
			&b.ID, &b.SlotID, &b.SessionType, &b.OfferPrice, &b.Topic,
			&b.SpecialRequirements, &b.StudentName, &b.StudentEmail, &b.StudentLevel, &b.Status,
			&b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, &b)
	}

	return bookings, nil
}

// UpdateStatus updates the lifecycle status of a booking
func (r *BookingsRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	r.log.Info().
		Str("id", id.String()).
		Str("status", string(status)).
		Msg("updated booking status")

	return nil
}
