package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"crowdwatch/internal/logger"
)

// UploadStore keeps one uploaded video per user on disk. Saving a new
// video removes the user's previous one; a directory size cap refuses
// uploads once the uploads directory outgrows it.
type UploadStore struct {
	dir      string
	maxBytes int64
	mu       sync.Mutex
	paths    map[int64]string
	logger   *logger.Logger
}

// NewUploadStore creates the store and its directory, indexing any videos
// left over from a previous run.
func NewUploadStore(dir string, maxSizeGB int64, log *logger.Logger) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	s := &UploadStore{
		dir:      dir,
		maxBytes: maxSizeGB * 1024 * 1024 * 1024,
		paths:    make(map[int64]string),
		logger:   log,
	}
	s.reindex()
	return s, nil
}

// reindex rebuilds the user->path map from filenames on disk. Filenames
// are video_<userID>_<uuid>.mp4.
func (s *UploadStore) reindex() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warning("Could not scan upload directory: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var userID int64
		var rest string
		if _, err := fmt.Sscanf(entry.Name(), "video_%d_%s", &userID, &rest); err != nil {
			continue
		}
		s.paths[userID] = filepath.Join(s.dir, entry.Name())
	}

	if len(s.paths) > 0 {
		s.logger.Info("Indexed %d existing upload(s)", len(s.paths))
	}
}

// Save stores the uploaded video for the user, replacing any previous one,
// and returns the stored path.
func (s *UploadStore) Save(userID int64, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size, err := s.directorySize()
	if err == nil && s.maxBytes > 0 && size > s.maxBytes {
		return "", fmt.Errorf("upload directory exceeds %d bytes", s.maxBytes)
	}

	name := fmt.Sprintf("video_%d_%s.mp4", userID, uuid.NewString())
	path := filepath.Join(s.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	if prev, ok := s.paths[userID]; ok && prev != path {
		if err := os.Remove(prev); err != nil && !os.IsNotExist(err) {
			s.logger.Warning("Could not remove previous upload %s: %v", prev, err)
		}
	}
	s.paths[userID] = path

	s.logger.Info("Stored upload for user %d at %s", userID, path)
	return path, nil
}

// PathFor returns the stored upload path for a user, or "" if none exists.
func (s *UploadStore) PathFor(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.paths[userID]
	if path != "" && !strings.HasPrefix(filepath.Clean(path), filepath.Clean(s.dir)) {
		return ""
	}
	return path
}

// directorySize sums the file sizes under the upload directory.
func (s *UploadStore) directorySize() (int64, error) {
	var total int64
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}
