// Package verification consumes the document-verification feed and applies
// status verdicts to the per-user application stores.
package verification

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/skillora/instructor-os/internal/models"
	"github.com/skillora/instructor-os/internal/nats"
	"github.com/skillora/instructor-os/internal/store"
	"github.com/skillora/instructor-os/internal/web"
)

// Stream layout for the verification feed.
const (
	StreamName             = "verifications"
	SubjectDocumentStatus  = "verifications.document"
	SubjectApplicationNews = "verifications.application"
	durableConsumer        = "verification_feed"
)

// DocumentStatusEvent is a verdict for one uploaded document.
type DocumentStatusEvent struct {
	UserID     string `json:"user_id"`
	Slot       string `json:"slot"`
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// ApplicationStatusEvent is a server-side application status transition.
type ApplicationStatusEvent struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// Broadcaster pushes an event to connected websocket clients.
type Broadcaster interface {
	Broadcast(data []byte)
}

// Consumer handles consuming verification events
type Consumer struct {
	client  *nats.Client
	manager *store.Manager
	hub     Broadcaster
	log     *zerolog.Logger
}

// NewConsumer creates a new verification feed consumer
func NewConsumer(client *nats.Client, manager *store.Manager, hub Broadcaster, log *zerolog.Logger) *Consumer {
	return &Consumer{
		client:  client,
		manager: manager,
		hub:     hub,
		log:     log,
	}
}

// Start ensures the stream exists and subscribes to both feed subjects.
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info().Msg("starting verification feed consumer")

	if err := c.client.EnsureStream(ctx, StreamName, []string{"verifications.>"}); err != nil {
		return err
	}
	if err := c.client.Subscribe(ctx, StreamName, durableConsumer+"_documents", SubjectDocumentStatus, c.handleDocumentStatus); err != nil {
		return err
	}
	return c.client.Subscribe(ctx, StreamName, durableConsumer+"_applications", SubjectApplicationNews, c.handleApplicationStatus)
}

// handleDocumentStatus processes a single document verdict
func (c *Consumer) handleDocumentStatus(data []byte) error {
	var event DocumentStatusEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.log.Error().Err(err).Msg("invalid verification message format, skipping")
		return nil // Ack and move on (poison message)
	}

	c.log.Debug().
		Str("user_id", event.UserID).
		Str("document_id", event.DocumentID).
		Str("status", event.Status).
		Msg("received document verdict")

	s, ok := c.manager.Lookup(event.UserID)
	if !ok {
		// the user has no live store; the verdict lands on next load
		c.log.Debug().Str("user_id", event.UserID).Msg("no active store for verdict")
		return nil
	}

	status := models.VerificationStatus(event.Status)
	if !models.ValidVerificationStatus(status) {
		c.log.Error().Str("status", event.Status).Msg("unknown verification status, skipping")
		return nil
	}

	err := s.SetDocumentStatus(models.DocumentSlot(event.Slot), event.DocumentID, status)
	if err != nil {
		c.log.Warn().Err(err).Str("document_id", event.DocumentID).Msg("could not apply verdict")
		return nil
	}

	c.broadcast(web.DocumentStatusEvent(event.UserID, event.Slot, event.DocumentID, event.Status, event.Reason))
	return nil
}

// handleApplicationStatus processes a server-side status transition
func (c *Consumer) handleApplicationStatus(data []byte) error {
	var event ApplicationStatusEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.log.Error().Err(err).Msg("invalid status message format, skipping")
		return nil
	}

	s, ok := c.manager.Lookup(event.UserID)
	if ok {
		if err := s.RefreshStatus(context.Background()); err != nil {
			c.log.Warn().Err(err).Str("user_id", event.UserID).Msg("status refresh after feed event failed")
		}
	}

	c.broadcast(web.ApplicationStatusEvent(event.UserID, event.Status))
	return nil
}

func (c *Consumer) broadcast(msg []byte) {
	if c.hub == nil {
		return
	}
	c.hub.Broadcast(msg)
}
