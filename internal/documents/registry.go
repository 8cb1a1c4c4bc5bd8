package documents

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skillora/instructor-os/internal/logger"
	"github.com/skillora/instructor-os/internal/models"
)

// upload validation errors
var (
	ErrUnknownSlot      = errors.New("unknown document slot")
	ErrEmptyFile        = errors.New("file is empty")
	ErrFileTooLarge     = errors.New("file exceeds the slot size limit")
	ErrUnsupportedType  = errors.New("file type is not allowed for this slot")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidStatus    = errors.New("invalid verification status")
)

// BlobStore persists raw file content and returns a serving URL.
type BlobStore interface {
	Save(slot models.DocumentSlot, id, filename string, content []byte) (string, error)
	Delete(slot models.DocumentSlot, id string) error
}

// Registry manages one user's document slots. A rejected file never enters
// the registry; constraint checks run before anything is stored.
type Registry struct {
	slots map[models.DocumentSlot]SlotConfig
	docs  models.DocumentSet
	blobs BlobStore
	thumb Generator
	log   *logger.Logger

	mu sync.Mutex
}

// NewRegistry builds a registry around an application's document set. The
// registry mutates the set in place so the owning store always sees the
// current records.
func NewRegistry(slots map[models.DocumentSlot]SlotConfig, docs models.DocumentSet, blobs BlobStore, thumb Generator) *Registry {
	return &Registry{
		slots: slots,
		docs:  docs,
		blobs: blobs,
		thumb: thumb,
		log:   logger.Get(),
	}
}

// Config returns the constraint table for a slot.
func (r *Registry) Config(slot models.DocumentSlot) (SlotConfig, bool) {
	cfg, ok := r.slots[slot]
	return cfg, ok
}

// Upload validates and stores a file in a slot. Singular slots replace any
// existing record; list slots append. The returned record starts in the
// `uploading` status and transitions as the verification backend reports in.
func (r *Registry) Upload(slot models.DocumentSlot, filename, mime string, content []byte) (models.DocumentRecord, error) {
	cfg, ok := r.slots[slot]
	if !ok {
		return models.DocumentRecord{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}

	if len(content) == 0 {
		return models.DocumentRecord{}, ErrEmptyFile
	}
	if int64(len(content)) > cfg.MaxBytes() {
		return models.DocumentRecord{}, fmt.Errorf("%w: %d bytes, limit %dMB", ErrFileTooLarge, len(content), cfg.MaxFileSizeMB)
	}
	if !cfg.Accepts(mime) {
		return models.DocumentRecord{}, fmt.Errorf("%w: %q", ErrUnsupportedType, mime)
	}

	kind, err := ClassifyMIME(mime)
	if err != nil {
		// allow-listed but unclassified means the config and the enum
		// have drifted apart
		return models.DocumentRecord{}, err
	}

	rec := models.DocumentRecord{
		ID:         uuid.NewString(),
		Name:       filename,
		MimeType:   mime,
		Kind:       kind,
		SizeBytes:  int64(len(content)),
		UploadedAt: time.Now().UTC(),
		Status:     models.DocStatusUploading,
	}

	url, err := r.blobs.Save(slot, rec.ID, filename, content)
	if err != nil {
		return models.DocumentRecord{}, fmt.Errorf("store file: %w", err)
	}
	rec.URL = url
	rec.PreviewURL = url

	// thumbnails are best-effort: a generation failure never fails the upload
	if r.thumb != nil {
		if thumbURL, err := r.thumb.Generate(rec, content); err == nil && thumbURL != "" {
			rec.ThumbnailURL = thumbURL
		} else if err != nil {
			r.log.Debug().Str("slot", string(slot)).Err(err).Msg("thumbnail generation skipped")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.Multiple {
		r.docs[slot] = append(r.docs[slot], rec)
	} else {
		// the old record is discarded, not queued for deletion elsewhere
		r.docs[slot] = []models.DocumentRecord{rec}
	}

	r.log.Info().
		Str("slot", string(slot)).
		Str("id", rec.ID).
		Int64("size", rec.SizeBytes).
		Msg("document uploaded")

	return rec, nil
}

// Remove deletes the record with the given id from a slot. Removing one
// record from a list slot leaves the other records and their ids untouched.
func (r *Registry) Remove(slot models.DocumentSlot, id string) error {
	if _, ok := r.slots[slot]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	recs := r.docs[slot]
	for i := range recs {
		if recs[i].ID == id {
			r.docs[slot] = append(recs[:i:i], recs[i+1:]...)
			if r.blobs != nil {
				_ = r.blobs.Delete(slot, id)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, slot, id)
}

// UpdateThumbnail records a thumbnail URL for a stored document.
func (r *Registry) UpdateThumbnail(slot models.DocumentSlot, id, thumbnailURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.docs.Find(slot, id)
	if rec == nil {
		return fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, slot, id)
	}
	rec.ThumbnailURL = thumbnailURL
	return nil
}

// SetStatus applies a verification-status transition reported by the
// external verification backend.
func (r *Registry) SetStatus(slot models.DocumentSlot, id string, status models.VerificationStatus) error {
	if !models.ValidVerificationStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.docs.Find(slot, id)
	if rec == nil {
		return fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, slot, id)
	}
	rec.Status = status

	r.log.Info().
		Str("slot", string(slot)).
		Str("id", id).
		Str("status", string(status)).
		Msg("document status updated")

	return nil
}

// Records returns a copy of the records in a slot.
func (r *Registry) Records(slot models.DocumentSlot) []models.DocumentRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs := r.docs[slot]
	out := make([]models.DocumentRecord, len(recs))
	copy(out, recs)
	return out
}
