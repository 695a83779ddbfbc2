package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
)

// StoreResult describes where uploaded bytes landed
type StoreResult struct {
	Path      string
	Hash      string // SHA-256, hex
	SizeBytes int64
	Deduped   bool // True when identical bytes already existed for the matter
}

// Store persists uploaded bytes under hash-derived paths and deduplicates
// identical files per matter. The destination path is deterministic:
// <root>/<matter>/<hash><original-extension>.
type Store struct {
	root   string
	logger arbor.ILogger
}

// NewStore creates a content store rooted at dir
func NewStore(dir string, logger arbor.ILogger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create content store root: %w", err)
	}
	return &Store{root: dir, logger: logger}, nil
}

// Save streams content to disk, hashing as it copies so large files are never
// buffered fully in memory. If the destination already exists the copy is
// discarded (idempotent dedup). On any failure both the temporary file and a
// partially written destination are removed.
func (s *Store) Save(matterID string, content io.Reader, originalName string) (*StoreResult, error) {
	matterDir := filepath.Join(s.root, sanitize(matterID))
	if err := os.MkdirAll(matterDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create matter directory: %w", err)
	}

	tmp, err := os.CreateTemp(matterDir, "upload-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), content)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		os.Remove(tmpPath)
		if err == nil {
			err = closeErr
		}
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	hash := hex.EncodeToString(hasher.Sum(nil))
	dest := filepath.Join(matterDir, hash+strings.ToLower(filepath.Ext(originalName)))

	if _, statErr := os.Stat(dest); statErr == nil {
		// Identical bytes already stored for this matter
		os.Remove(tmpPath)
		s.logger.Debug().Str("path", dest).Msg("Duplicate upload, reusing stored file")
		return &StoreResult{Path: dest, Hash: hash, SizeBytes: size, Deduped: true}, nil
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		os.Remove(dest)
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	return &StoreResult{Path: dest, Hash: hash, SizeBytes: size, Deduped: false}, nil
}

// Delete removes stored bytes. Missing files are not an error.
func (s *Store) Delete(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete stored file: %w", err)
	}
	return nil
}

// sanitize keeps matter IDs filesystem-safe
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
