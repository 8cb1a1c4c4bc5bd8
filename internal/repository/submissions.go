package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/skillora/instructor-os/internal/logger"
	"github.com/skillora/instructor-os/internal/models"
)

// Submission archives one accepted submission of an application: who
// submitted, when, and the full state snapshot that went for review.
type Submission struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         string `gorm:"index;not null"`
	VerificationID string `gorm:"index"`
	Version        int    `gorm:"not null"`
	State          models.ApplicationState `gorm:"serializer:json"`
	SubmittedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SubmissionsRepository archives submitted application snapshots via GORM.
type SubmissionsRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSubmissionsRepository creates the repository and ensures the schema.
func NewSubmissionsRepository(db *gorm.DB, log *logger.Logger) (*SubmissionsRepository, error) {
	if err := db.AutoMigrate(&Submission{}); err != nil {
		return nil, fmt.Errorf("migrate submissions: %w", err)
	}
	return &SubmissionsRepository{db: db, log: log}, nil
}

// Record stores a snapshot of a submitted application.
func (r *SubmissionsRepository) Record(ctx context.Context, state *models.ApplicationState) (*Submission, error) {
	verificationID := ""
	if state.VerificationID != nil {
		verificationID = *state.VerificationID
	}

	sub := &Submission{
		UserID:         state.UserID,
		VerificationID: verificationID,
		Version:        state.Version,
		State:          *state,
		SubmittedAt:    time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, fmt.Errorf("record submission: %w", err)
	}

	r.log.Info().
		Str("user_id", sub.UserID).
		Str("verification_id", sub.VerificationID).
		Int("version", sub.Version).
		Msg("archived submission")

	return sub, nil
}

// Latest returns the most recent submission for a user, or nil.
func (r *SubmissionsRepository) Latest(ctx context.Context, userID string) (*Submission, error) {
	var sub Submission
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest submission: %w", err)
	}
	return &sub, nil
}

// History returns every submission for a user, newest first.
func (r *SubmissionsRepository) History(ctx context.Context, userID string) ([]Submission, error) {
	var subs []Submission
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("submission history: %w", err)
	}
	return subs, nil
}
