// Package storage keeps uploaded diagnosis photos on the local filesystem
// and serves them under a public URL prefix.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agrihealth-server/internal/domain"
)

// ErrTooLarge is returned when an upload exceeds the configured limit
var ErrTooLarge = domain.ErrTooLarge

// keyPrefix groups diagnosis photos inside the upload directory
const keyPrefix = "diagnoses"

// LocalImageStore implements domain.ImageStore on a directory
type LocalImageStore struct {
	dir      string
	baseURL  string
	maxBytes int64
	logger   *logrus.Logger
	now      func() time.Time
}

// NewLocalImageStore creates the upload directory if needed
func NewLocalImageStore(cfg domain.StorageConfig, logger *logrus.Logger) (*LocalImageStore, error) {
	if err := os.MkdirAll(filepath.Join(cfg.UploadDir, keyPrefix), 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalImageStore{
		dir:      cfg.UploadDir,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		maxBytes: cfg.MaxUploadBytes,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Dir is the directory served under the public URL prefix
func (s *LocalImageStore) Dir() string {
	return s.dir
}

// Save stores an image and returns its public URL. Only image/* content
// types up to the size limit are accepted; filesystem failures are
// reported as upstream errors.
func (s *LocalImageStore) Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", domain.NewValidationError("image", "Only images are allowed!", contentType)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", fmt.Errorf("%d bytes exceeds %d: %w", size, s.maxBytes, ErrTooLarge)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := path.Join(keyPrefix, fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), safeExt(filename)))
	target := filepath.Join(s.dir, filepath.FromSlash(key))

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w: %w", key, domain.ErrUpstream, err)
	}

	reader := r
	if s.maxBytes > 0 {
		reader = io.LimitReader(r, s.maxBytes+1)
	}
	written, copyErr := io.Copy(f, reader)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		os.Remove(target)
		return "", fmt.Errorf("failed to write %s: %w: %w", key, domain.ErrUpstream, copyErr)
	case closeErr != nil:
		os.Remove(target)
		return "", fmt.Errorf("failed to close %s: %w: %w", key, domain.ErrUpstream, closeErr)
	case s.maxBytes > 0 && written > s.maxBytes:
		os.Remove(target)
		return "", fmt.Errorf("upload exceeds %d bytes: %w", s.maxBytes, ErrTooLarge)
	}

	s.logger.WithFields(logrus.Fields{
		"key":   key,
		"bytes": written,
	}).Debug("Stored uploaded image")

	return s.baseURL + "/" + key, nil
}

// Delete removes an image stored by Save. URLs outside the store's prefix
// are rejected and an already missing file is not an error.
func (s *LocalImageStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := strings.TrimPrefix(url, s.baseURL+"/")
	if key == url || !strings.HasPrefix(key, keyPrefix+"/") || strings.Contains(key, "..") {
		return domain.NewValidationError("image", "Image does not belong to this store", url)
	}

	if err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w: %w", key, domain.ErrUpstream, err)
	}

	s.logger.WithField("key", key).Debug("Removed uploaded image")
	return nil
}

// safeExt keeps a short alphanumeric extension from the client filename
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
