package web

import (
	"encoding/json"
)

// WebSocket event types
const (
	EventDocumentStatus    = "document.status"
	EventApplicationStatus = "application.status"
	EventStorageWarning    = "storage.warning"
)

// WSEvent represents a structured WebSocket message
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// DocumentStatusPayload is the payload for EventDocumentStatus
type DocumentStatusPayload struct {
	UserID     string `json:"user_id"`
	Slot       string `json:"slot"`
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// ApplicationStatusPayload is the payload for EventApplicationStatus
type ApplicationStatusPayload struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// DocumentStatusEvent creates a JSON message for a document verdict. reason
// is optional and only populated for rejections.
func DocumentStatusEvent(userID, slot, documentID, status, reason string) []byte {
	evt := WSEvent{
		Type: EventDocumentStatus,
		Payload: DocumentStatusPayload{
			UserID:     userID,
			Slot:       slot,
			DocumentID: documentID,
			Status:     status,
			Reason:     reason,
		},
	}
	b, _ := json.Marshal(evt)
	return b
}

// ApplicationStatusEvent creates a JSON message for a status transition
func ApplicationStatusEvent(userID, status string) []byte {
	evt := WSEvent{
		Type: EventApplicationStatus,
		Payload: ApplicationStatusPayload{
			UserID: userID,
			Status: status,
		},
	}
	b, _ := json.Marshal(evt)
	return b
}

// StorageWarningEvent creates a JSON message for a storage pressure warning
func StorageWarningEvent(userID, message string) []byte {
	evt := WSEvent{
		Type: EventStorageWarning,
		Payload: map[string]string{
			"user_id": userID,
			"message": message,
		},
	}
	b, _ := json.Marshal(evt)
	return b
}
