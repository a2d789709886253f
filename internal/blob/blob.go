// Package blob stores uploaded files and hands back retrievable URLs.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit
	ErrTooLarge = errors.New("file is too large")
	// ErrUnsupportedType is returned when an upload is not an accepted image
	ErrUnsupportedType = errors.New("file must be an image (jpeg, png, gif or webp)")
)

// Store persists uploaded files
type Store interface {
	// Put stores r under bucket and returns a URL it can be fetched from.
	Put(ctx context.Context, bucket string, r io.Reader) (string, error)
	// Delete removes a file previously returned by Put.
	Delete(ctx context.Context, fileURL string) error
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// LocalStore writes files below a directory that the router serves statically
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewLocalStore creates a store rooted at dir whose files are reachable
// under baseURL (origin plus route prefix)
func NewLocalStore(dir, baseURL string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid storage base URL: %w", err)
	}
	return &LocalStore{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

// Dir returns the directory files are written to
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put validates that r is an image within the size limit and writes it
// under a random name
func (s *LocalStore) Put(ctx context.Context, bucket string, r io.Reader) (string, error) {
	if !bucketPattern.MatchString(bucket) {
		return "", fmt.Errorf("invalid bucket name %q", bucket)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !allowedImageTypes[mtype.String()] {
		return "", ErrUnsupportedType
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	bucketDir := filepath.Join(s.dir, bucket)
	if err := os.MkdirAll(bucketDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create bucket directory: %w", err)
	}

	name := uuid.NewString() + mtype.Extension()
	target := filepath.Join(bucketDir, name)
	if err := writeFile(target, data); err != nil {
		return "", err
	}

	slog.Debug("Stored upload", "bucket", bucket, "name", name, "mime", mtype.String(), "bytes", len(data))
	return s.baseURL + "/" + path.Join(bucket, name), nil
}

// Delete removes the file behind a URL returned by Put. URLs this store did
// not hand out and files that are already gone are ignored.
func (s *LocalStore) Delete(ctx context.Context, fileURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, ok := strings.CutPrefix(fileURL, s.baseURL+"/")
	if !ok {
		return nil
	}
	bucket, name, ok := strings.Cut(rel, "/")
	if !ok || !bucketPattern.MatchString(bucket) || name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil
	}

	if err := os.Remove(filepath.Join(s.dir, bucket, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func writeFile(target string, data []byte) error {
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(target)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return f.Close()
}
