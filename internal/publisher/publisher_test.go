package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/skillora/instructor-os/internal/store"
)

// MockNATSClient mocks the nats client operations we need
type MockNATSClient struct {
	PublishedSubject string
	PublishedData    []byte
	PublishError     error
}

func (m *MockNATSClient) Publish(subject string, data []byte) error {
	m.PublishedSubject = subject
	m.PublishedData = data
	return m.PublishError
}

func TestNATSPublisher_PublishApplicationSubmitted(t *testing.T) {
	mock := &MockNATSClient{}
	pub := &NATSPublisher{
		nc: mock,
	}

	event := store.ApplicationSubmittedEvent{
		UserID:         "user-1",
		VerificationID: "ver-1",
		Version:        7,
		SubmittedAt:    time.Now(),
	}

	err := pub.PublishApplicationSubmitted(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.PublishedSubject != SubjectApplicationSubmitted {
		t.Errorf("subject = %s, want %s", mock.PublishedSubject, SubjectApplicationSubmitted)
	}

	var decoded store.ApplicationSubmittedEvent
	if err := json.Unmarshal(mock.PublishedData, &decoded); err != nil {
		t.Fatalf("payload should be valid json: %v", err)
	}
	if decoded.VerificationID != "ver-1" {
		t.Errorf("verification_id = %s, want ver-1", decoded.VerificationID)
	}
}

func TestNATSPublisher_PublishDocumentUploaded(t *testing.T) {
	mock := &MockNATSClient{}
	pub := &NATSPublisher{
		nc: mock,
	}

	event := store.DocumentUploadedEvent{
		UserID:     "user-1",
		Slot:       "identity_document",
		DocumentID: "doc-1",
		Name:       "id.jpg",
		MimeType:   "image/jpeg",
		SizeBytes:  1024,
		UploadedAt: time.Now(),
	}

	err := pub.PublishDocumentUploaded(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.PublishedSubject != SubjectDocumentUploaded {
		t.Errorf("subject = %s, want %s", mock.PublishedSubject, SubjectDocumentUploaded)
	}

	if len(mock.PublishedData) == 0 {
		t.Error("payload should not be empty")
	}
}
