package preview

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Blob is a locally addressable copy of a downloaded artifact
type Blob struct {
	Ref         string
	ContentType string
	FileName    string
	Data        []byte
	// Path is set when the store spills blobs to disk
	Path string
}

// BlobStore owns downloaded artifacts until they are released
type BlobStore struct {
	mu    sync.Mutex
	dir   string
	blobs map[string]Blob
}

// NewBlobStore creates a store. With a non-empty dir every blob is also
// written to a file there.
func NewBlobStore(dir string) (*BlobStore, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create blob directory: %w", err)
		}
	}
	return &BlobStore{dir: dir, blobs: make(map[string]Blob)}, nil
}

// Put stores data under a fresh reference
func (s *BlobStore) Put(data []byte, contentType, fileName string) (string, error) {
	blob := Blob{
		Ref:         uuid.NewString(),
		ContentType: contentType,
		FileName:    fileName,
		Data:        data,
	}

	if s.dir != "" {
		blob.Path = filepath.Join(s.dir, blob.Ref+extension(contentType, fileName))
		if err := os.WriteFile(blob.Path, data, 0o600); err != nil {
			return "", fmt.Errorf("failed to write blob: %w", err)
		}
	}

	s.mu.Lock()
	s.blobs[blob.Ref] = blob
	s.mu.Unlock()
	return blob.Ref, nil
}

// Get returns the blob for ref
func (s *BlobStore) Get(ref string) (Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[ref]
	return blob, ok
}

// Release drops ref; unknown references are ignored
func (s *BlobStore) Release(ref string) {
	s.mu.Lock()
	blob, ok := s.blobs[ref]
	delete(s.blobs, ref)
	s.mu.Unlock()

	if ok && blob.Path != "" {
		os.Remove(blob.Path)
	}
}

// Len returns the number of live blobs
func (s *BlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

func extension(contentType, fileName string) string {
	if ext := filepath.Ext(fileName); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
