package documents

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skillora/instructor-os/internal/models"
)

// DiskBlobStore stores uploaded files under a per-user directory tree:
// <root>/<user>/<slot>/<id>_<filename>.
type DiskBlobStore struct {
	root   string
	userID string
}

// NewDiskBlobStore creates a blob store rooted at dir for one user.
func NewDiskBlobStore(dir, userID string) *DiskBlobStore {
	return &DiskBlobStore{root: dir, userID: userID}
}

// Save writes file content and returns its path as the serving URL.
func (s *DiskBlobStore) Save(slot models.DocumentSlot, id, filename string, content []byte) (string, error) {
	dir := filepath.Join(s.root, s.userID, string(slot))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create document directory: %w", err)
	}

	path := filepath.Join(dir, id+"_"+filepath.Base(filename))
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}

	return path, nil
}

// Delete removes all files stored for a document id. Missing files are not
// an error: removal must stay idempotent.
func (s *DiskBlobStore) Delete(slot models.DocumentSlot, id string) error {
	dir := filepath.Join(s.root, s.userID, string(slot))
	matches, err := filepath.Glob(filepath.Join(dir, id+"_*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove document: %w", err)
		}
	}
	return nil
}

// MemoryBlobStore keeps file content in memory. Used by tests and by the
// store's isolated instances.
type MemoryBlobStore struct {
	files map[string][]byte
}

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{files: make(map[string][]byte)}
}

func (s *MemoryBlobStore) key(slot models.DocumentSlot, id string) string {
	return string(slot) + "/" + id
}

// Save keeps content in memory and returns a synthetic URL.
func (s *MemoryBlobStore) Save(slot models.DocumentSlot, id, filename string, content []byte) (string, error) {
	s.files[s.key(slot, id)] = content
	return "mem://" + s.key(slot, id) + "/" + filename, nil
}

// Delete drops the stored content.
func (s *MemoryBlobStore) Delete(slot models.DocumentSlot, id string) error {
	delete(s.files, s.key(slot, id))
	return nil
}

// Len returns the number of stored blobs.
func (s *MemoryBlobStore) Len() int {
	return len(s.files)
}
