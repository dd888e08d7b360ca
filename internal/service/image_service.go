package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	apperrors "techlam/internal/errors"
	"techlam/internal/metrics"
)

// allowedImageTypes are the sniffed content types accepted for project images.
var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// ImageStorer stores image bytes and returns the object key and public URL.
type ImageStorer interface {
	Put(ctx context.Context, originalName, ext string, r io.Reader, size int64, contentType string) (string, string, error)
}

// UploadedImage describes a stored project image.
type UploadedImage struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ImageService validates and stores project images.
type ImageService interface {
	Upload(ctx context.Context, originalName string, r io.Reader) (*UploadedImage, error)
	MaxBytes() int64
}

type imageService struct {
	store    ImageStorer
	maxBytes int64
	metrics  metrics.MetricsCollector
}

// NewImageService creates an image service that rejects uploads above maxBytes.
func NewImageService(store ImageStorer, maxBytes int64, collector metrics.MetricsCollector) ImageService {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &imageService{store: store, maxBytes: maxBytes, metrics: collector}
}

func (s *imageService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload reads at most maxBytes, sniffs the content type and stores the image.
func (s *imageService) Upload(ctx context.Context, originalName string, r io.Reader) (*UploadedImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	size := int64(len(data))
	if size > s.maxBytes {
		return nil, fmt.Errorf("%w: files may be at most %s", apperrors.ErrImageTooLarge, humanize.IBytes(uint64(s.maxBytes)))
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: file is empty", apperrors.ErrUnsupportedImage)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return nil, fmt.Errorf("%w: %s is not a JPEG, PNG, WebP or GIF image", apperrors.ErrUnsupportedImage, mtype.String())
	}

	key, url, err := s.store.Put(ctx, originalName, mtype.Extension(), bytes.NewReader(data), size, mtype.String())
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	s.metrics.RecordImageUpload(size)
	return &UploadedImage{Key: key, URL: url, ContentType: mtype.String(), Size: size}, nil
}
