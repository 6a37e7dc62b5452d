package server

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sofianehd/linkup/pkg/apperr"
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// saveUpload validates and stores one uploaded image, returning its public
// path. Files are content-addressed by SHA-256 so re-uploads of the same
// bytes dedupe to a single file on disk.
func (a *App) saveUpload(file multipart.File) (path, mimeType string, size int64, err error) {
	data, err := io.ReadAll(io.LimitReader(file, a.cfg.Uploads.MaxBytes+1))
	if err != nil {
		return "", "", 0, apperr.Wrap(apperr.CodeInternal, "read upload", err)
	}
	if int64(len(data)) > a.cfg.Uploads.MaxBytes {
		return "", "", 0, apperr.InvalidArg("image exceeds the upload size limit")
	}
	if len(data) == 0 {
		return "", "", 0, apperr.InvalidArg("empty upload")
	}

	mimeType = http.DetectContentType(data)
	ext, ok := imageExtensions[mimeType]
	if !ok {
		return "", "", 0, apperr.InvalidArg("unsupported image type")
	}

	sum := sha256.Sum256(data)
	name := fmt.Sprintf("%x%s", sum[:], ext)
	if err := a.writeFileIfMissing(name, data); err != nil {
		return "", "", 0, apperr.Wrap(apperr.CodeInternal, "store upload", err)
	}
	return "/uploads/" + name, mimeType, int64(len(data)), nil
}

func (a *App) writeFileIfMissing(name string, data []byte) error {
	if err := os.MkdirAll(a.cfg.Uploads.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(a.cfg.Uploads.Dir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// removeUploadFiles deletes stored upload files best-effort, skipping any
// path a live message, attachment, or avatar still references: files are
// content-addressed, so the same file can back rows that outlive this
// deletion. A failure here leaves an orphaned file for later cleanup, never
// a dangling database row.
func (a *App) removeUploadFiles(ctx context.Context, paths []string) {
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		name := strings.TrimPrefix(p, "/uploads/")
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}

		refs, err := a.store.CountUploadReferences(ctx, p)
		if err != nil {
			log.Printf("count upload references %s: %v", p, err)
			continue
		}
		if refs > 0 {
			continue
		}
		full := filepath.Join(a.cfg.Uploads.Dir, name)
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("remove upload %s: %v", full, err)
		}
	}
}
