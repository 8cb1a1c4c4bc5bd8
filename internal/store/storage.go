package store

import (
	"encoding/json"
	"strings"
)

// Default thresholds for the serialized application snapshot, in KB.
const (
	DefaultStorageWarnKB     = 4000
	DefaultStorageCriticalKB = 5000
)

// StorageAction is the result of a storage pressure check.
type StorageAction int

const (
	StorageOK StorageAction = iota
	StorageWarn
	StorageCritical
)

// EvaluateStorage maps a snapshot size to the action the store should take.
func EvaluateStorage(sizeKB, warnKB, criticalKB int) StorageAction {
	switch {
	case sizeKB > criticalKB:
		return StorageCritical
	case sizeKB > warnKB:
		return StorageWarn
	default:
		return StorageOK
	}
}

// StorageSizeKB returns the size of the serialized application state in KB.
func (s *Store) StorageSizeKB() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storageSizeKBLocked()
}

func (s *Store) storageSizeKBLocked() int {
	b, err := json.Marshal(s.state)
	if err != nil {
		return 0
	}
	return len(b) / 1024
}

// CheckStorage measures the snapshot, records a warning message when the
// state grows past the warn threshold, and evicts inlined previews when it
// passes the critical one. Cleanup never touches structural data.
func (s *Store) CheckStorage() StorageAction {
	s.mu.Lock()
	defer s.mu.Unlock()

	sizeKB := s.storageSizeKBLocked()
	action := EvaluateStorage(sizeKB, s.warnKB, s.criticalKB)
	switch action {
	case StorageCritical:
		s.log.Warn().Str("user_id", s.userID).Int("size_kb", sizeKB).
			Msg("Application snapshot over critical size, evicting previews")
		s.cleanupStorageLocked()
		s.storageErr = ""
	case StorageWarn:
		s.storageErr = "application data is getting large, older previews may be removed"
		s.log.Warn().Str("user_id", s.userID).Int("size_kb", sizeKB).
			Msg("Application snapshot over warn size")
	default:
		s.storageErr = ""
	}
	return action
}

// StorageError returns the current storage warning, if any.
func (s *Store) StorageError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storageErr
}

// CleanupStorage drops the least essential data from the snapshot: inlined
// data: URLs in document previews and thumbnails. Document records, uploaded
// file URLs and verification statuses survive eviction.
func (s *Store) CleanupStorage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupStorageLocked()
}

func (s *Store) cleanupStorageLocked() {
	for slot, recs := range s.state.Documents {
		for i := range recs {
			if strings.HasPrefix(recs[i].PreviewURL, "data:") {
				recs[i].PreviewURL = ""
			}
			if strings.HasPrefix(recs[i].ThumbnailURL, "data:") {
				recs[i].ThumbnailURL = ""
			}
		}
		s.state.Documents[slot] = recs
	}
	s.persistLocalLocked()
}
