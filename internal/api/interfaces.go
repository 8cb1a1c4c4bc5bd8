package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/skillora/instructor-os/internal/assistant"
	"github.com/skillora/instructor-os/internal/models"
	"github.com/skillora/instructor-os/internal/repository"
	"github.com/skillora/instructor-os/internal/store"
)

// StoreManager hands out the per-user application store.
type StoreManager interface {
	Get(userID, token string) *store.Store
}

// BookingsRepository defines the interface for booking data access.
type BookingsRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// SubmissionsArchive records accepted submissions.
type SubmissionsArchive interface {
	Record(ctx context.Context, state *models.ApplicationState) (*repository.Submission, error)
}

// AssistantService defines the interface for AI writing suggestions.
type AssistantService interface {
	Suggest(ctx context.Context, userID string, req assistant.SuggestRequest) (*assistant.Suggestion, error)
	Session(userID string) (*assistant.Session, error)
}

// HubBroadcaster defines the interface for WebSocket broadcasting.
type HubBroadcaster interface {
	Broadcast(data []byte)
}
