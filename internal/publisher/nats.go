package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/skillora/instructor-os/internal/store"
)

// Subjects published for downstream services.
const (
	SubjectApplicationSubmitted = "applications.submitted"
	SubjectDocumentUploaded     = "documents.uploaded"
)

// NATSClient interface to allow mocking
type NATSClient interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher implements store.EventPublisher
type NATSPublisher struct {
	nc NATSClient
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: conn}
}

// PublishApplicationSubmitted publishes a submission event
func (p *NATSPublisher) PublishApplicationSubmitted(ctx context.Context, event store.ApplicationSubmittedEvent) error {
	return p.publish(SubjectApplicationSubmitted, event)
}

// PublishDocumentUploaded publishes a document upload event
func (p *NATSPublisher) PublishDocumentUploaded(ctx context.Context, event store.DocumentUploadedEvent) error {
	return p.publish(SubjectDocumentUploaded, event)
}

func (p *NATSPublisher) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}
