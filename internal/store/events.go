package store

import (
	"context"
	"time"
)

// ApplicationSubmittedEvent is emitted after the backend accepts a submission.
type ApplicationSubmittedEvent struct {
	UserID         string    `json:"user_id"`
	VerificationID string    `json:"verification_id,omitempty"`
	Version        int       `json:"version"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// DocumentUploadedEvent is emitted after a document lands in a slot.
type DocumentUploadedEvent struct {
	UserID     string    `json:"user_id"`
	Slot       string    `json:"slot"`
	DocumentID string    `json:"document_id"`
	Name       string    `json:"name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// EventPublisher receives domain events from stores. The NATS publisher
// implements it; tests use a mock.
type EventPublisher interface {
	PublishApplicationSubmitted(ctx context.Context, event ApplicationSubmittedEvent) error
	PublishDocumentUploaded(ctx context.Context, event DocumentUploadedEvent) error
}
