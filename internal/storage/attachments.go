// Package storage persists incident attachments on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// allowedExtensions maps acceptable upload extensions to true. Executables and
// scripts are rejected wholesale.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
	".txt":  true,
	".log":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".csv":  true,
	".zip":  true,
}

// allowedMIMETypes is the declared-content-type counterpart of the extension
// allowlist. The generic application/octet-stream is treated as undeclared and
// the extension decides.
var allowedMIMETypes = map[string]bool{
	"image/jpeg":                   true,
	"image/png":                    true,
	"image/gif":                    true,
	"image/webp":                   true,
	"application/pdf":              true,
	"text/plain":                   true,
	"text/csv":                     true,
	"application/msword":           true,
	"application/vnd.ms-excel":     true,
	"application/zip":              true,
	"application/x-zip-compressed": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
}

// AttachmentStore validates and writes uploaded files under a base directory.
// Stored names are generated, never derived from the client filename, so path
// traversal in the original name is inert.
type AttachmentStore struct {
	dir      string
	maxBytes int64
}

func NewAttachmentStore(dir string, maxBytes int64) (*AttachmentStore, error) {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &AttachmentStore{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the base directory, for serving files statically.
func (s *AttachmentStore) Dir() string { return s.dir }

// Save validates the upload and writes it to disk, returning the stored
// filename (relative to the base directory). A file of exactly the size limit
// is accepted; one byte over is rejected.
func (s *AttachmentStore) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.maxBytes {
		return "", domain.Invalid("attachment", fmt.Sprintf("exceeds the %d byte size limit", s.maxBytes))
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return "", domain.Invalid("attachment", fmt.Sprintf("file type %q is not allowed", ext))
	}

	if ct := fh.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return "", domain.Invalid("attachment", fmt.Sprintf("content type %q is malformed", ct))
		}
		if mediaType != "application/octet-stream" && !allowedMIMETypes[mediaType] {
			return "", domain.Invalid("attachment", fmt.Sprintf("content type %q is not allowed", mediaType))
		}
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("incident-%d-%s%s", time.Now().UnixNano(), shortID(), ext)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}
	defer dst.Close()

	// The declared size is client-controlled; enforce the limit on the actual
	// bytes as well.
	n, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if n > s.maxBytes {
		_ = os.Remove(dst.Name())
		return "", domain.Invalid("attachment", fmt.Sprintf("exceeds the %d byte size limit", s.maxBytes))
	}

	return name, nil
}

// Remove deletes a stored attachment. Used to clean up when the incident
// insert fails after the file was written.
func (s *AttachmentStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	// Reject anything that escapes the base directory.
	if filepath.Base(name) != name {
		return domain.Invalid("attachment", "invalid stored name")
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
