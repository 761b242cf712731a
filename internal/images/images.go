// Package images validates, transcodes, and uploads listing pictures to
// object storage. Each image is auto-oriented from its EXIF metadata,
// downscaled to a maximum width, and re-encoded as JPEG before upload.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"regexp"
	"time"

	"github.com/carbrainiac/apiserver/internal/apperr"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/image/webp"
)

const (
	maxWidth    = 800
	jpegQuality = 85

	// Fan-out is bounded; the ingress layer already caps a batch at 20
	// files, this keeps resource use flat regardless of batch size.
	uploadConcurrency = 8
	batchTimeout      = 60 * time.Second
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/bmp":  {},
	"image/webp": {},
}

var urlUnfriendly = regexp.MustCompile(`[^a-zA-Z0-9-_.]`)

// File is one in-memory upload taken off a multipart request.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ObjectStore is the slice of object storage the uploader needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

// Uploader transcodes and uploads image batches.
type Uploader struct {
	store ObjectStore
	now   func() time.Time
}

func NewUploader(store ObjectStore) *Uploader {
	return &Uploader{store: store, now: time.Now}
}

// ValidateImage rejects anything outside the raster-image allow-list.
func ValidateImage(file File) error {
	if _, ok := allowedImageTypes[file.ContentType]; !ok {
		return apperr.BadRequest("Invalid Image type")
	}
	return nil
}

// SanitizeName strips every character that is not URL-safe.
func SanitizeName(name string) string {
	return urlUnfriendly.ReplaceAllString(name, "")
}

// UploadBatch validates, transcodes, and uploads all files, returning
// public URLs index-correlated with the submitted order. The batch is
// all-or-nothing: any failure rejects the whole batch and no partial
// result is returned.
func (u *Uploader) UploadBatch(ctx context.Context, area, name string, files []File) ([]string, error) {
	for _, file := range files {
		if err := ValidateImage(file); err != nil {
			return nil, err
		}
	}

	sanitized := SanitizeName(name)
	stamp := u.now().UnixMilli()

	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	urls := make([]string, len(files))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(uploadConcurrency)

	for i, file := range files {
		group.Go(func() error {
			encoded, err := transcode(file.Data)
			if err != nil {
				slog.Error("image processing failed", "file", file.Filename, "error", err)
				return apperr.Internal("Error in processing image")
			}

			key := objectKey(area, sanitized, stamp, i)
			if err := u.store.Put(groupCtx, key, bytes.NewReader(encoded), int64(len(encoded)), "image/jpeg"); err != nil {
				slog.Error("image upload failed", "key", key, "error", err)
				return apperr.Internal("Failed to upload image")
			}

			urls[i] = u.store.PublicURL(key)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// objectKey builds the deterministic storage path for one image: area and
// sanitized name form the folder, the timestamp suffix avoids collisions,
// and the index keeps files of one batch distinct.
func objectKey(area, sanitized string, stamp int64, index int) string {
	return fmt.Sprintf("%s/%s/carbrainiac_%s_%s_%d_%d.jpg", area, sanitized, sanitized, area, stamp, index)
}

// transcode decodes with EXIF auto-orientation, downscales to maxWidth
// preserving aspect ratio without ever upscaling, and re-encodes as JPEG
// at a fixed quality.
func transcode(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Dimensions reports the decoded size of an image without transcoding it.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
