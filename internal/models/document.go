package models

import (
	"time"
)

// DocumentSlot is a named, typed location in the document registry.
type DocumentSlot string

// Document slot names. Singular slots hold at most one record and are
// overwritten on re-upload; list slots append and remove by id.
const (
	SlotIdentityDocument           DocumentSlot = "identity_document"
	SlotProfilePhoto               DocumentSlot = "profile_photo"
	SlotEducationCertificates      DocumentSlot = "education_certificates"
	SlotProfessionalCertifications DocumentSlot = "professional_certifications"
	SlotEmploymentVerification     DocumentSlot = "employment_verification"
	SlotResume                     DocumentSlot = "resume"
	SlotVideoIntroduction          DocumentSlot = "video_introduction"
)

// SlotOrder lists all slots in presentation order.
var SlotOrder = []DocumentSlot{
	SlotIdentityDocument,
	SlotProfilePhoto,
	SlotEducationCertificates,
	SlotProfessionalCertifications,
	SlotEmploymentVerification,
	SlotResume,
	SlotVideoIntroduction,
}

// VerificationStatus is the server-assigned lifecycle state of an uploaded
// document. This service consumes the status; it never computes it.
type VerificationStatus string

// VerificationStatus constants.
const (
	DocStatusUploading  VerificationStatus = "uploading"
	DocStatusPending    VerificationStatus = "pending"
	DocStatusProcessing VerificationStatus = "processing"
	DocStatusVerified   VerificationStatus = "verified"
	DocStatusRejected   VerificationStatus = "rejected"
	DocStatusFailed     VerificationStatus = "failed"
)

// ValidVerificationStatus reports whether s is a known status value.
func ValidVerificationStatus(s VerificationStatus) bool {
	switch s {
	case DocStatusUploading, DocStatusPending, DocStatusProcessing,
		DocStatusVerified, DocStatusRejected, DocStatusFailed:
		return true
	}
	return false
}

// DocumentKind is the closed classification of an uploaded file's content type.
// Unknown MIME types fail classification loudly instead of falling into a
// default bucket.
type DocumentKind string

const (
	KindImage DocumentKind = "image"
	KindPDF   DocumentKind = "pdf"
	KindWord  DocumentKind = "word"
	KindVideo DocumentKind = "video"
)

// DocumentRecord is one uploaded file tracked by the registry.
type DocumentRecord struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	MimeType     string             `json:"mime_type"`
	Kind         DocumentKind       `json:"kind"`
	SizeBytes    int64              `json:"size_bytes"`
	UploadedAt   time.Time          `json:"uploaded_at"`
	URL          string             `json:"url"`
	PreviewURL   string             `json:"preview_url,omitempty"`
	ThumbnailURL string             `json:"thumbnail_url,omitempty"`
	Status       VerificationStatus `json:"status"`
}

// DocumentSet maps slots to their uploaded records.
type DocumentSet map[DocumentSlot][]DocumentRecord

// NewDocumentSet returns an empty set with all known slots present.
func NewDocumentSet() DocumentSet {
	set := make(DocumentSet, len(SlotOrder))
	for _, slot := range SlotOrder {
		set[slot] = []DocumentRecord{}
	}
	return set
}

// First returns the first record in a slot, or nil when the slot is empty.
func (s DocumentSet) First(slot DocumentSlot) *DocumentRecord {
	recs := s[slot]
	if len(recs) == 0 {
		return nil
	}
	return &recs[0]
}

// Find returns the record with the given id in a slot, or nil.
func (s DocumentSet) Find(slot DocumentSlot, id string) *DocumentRecord {
	recs := s[slot]
	for i := range recs {
		if recs[i].ID == id {
			return &recs[i]
		}
	}
	return nil
}
