// Package storage keeps uploaded project images in an S3 compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"techlam/internal/config"
)

// ObjectClient is the subset of *minio.Client the image store needs.
type ObjectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// ImageStore uploads images under generated keys and returns their public URLs.
type ImageStore struct {
	client     ObjectClient
	bucket     string
	publicBase string
	now        func() time.Time
}

// NewMinioClient connects to the configured endpoint.
func NewMinioClient(cfg config.StorageConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// NewImageStore creates an image store writing to bucket.
func NewImageStore(client ObjectClient, bucket, publicBaseURL string) *ImageStore {
	return &ImageStore{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBaseURL, "/"),
		now:        time.Now,
	}
}

// EnsureBucket creates the bucket if needed and makes its objects publicly readable.
func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	if err := s.client.SetBucketPolicy(ctx, s.bucket, publicReadPolicy(s.bucket)); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}

// Put stores r under a fresh key derived from originalName and returns the key and public URL.
// ext is the extension of the sniffed content type and takes precedence over the name's.
func (s *ImageStore) Put(ctx context.Context, originalName, ext string, r io.Reader, size int64, contentType string) (string, string, error) {
	key := NewObjectKey(s.now(), originalName, ext)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, s.PublicURL(key), nil
}

// Delete removes a stored object.
func (s *ImageStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// RemoveURL deletes the object a public URL points at. URLs outside this bucket are ignored.
func (s *ImageStore) RemoveURL(ctx context.Context, url string) error {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return nil
	}
	return s.Delete(ctx, key)
}

// KeyFromURL returns the object key behind a URL built by PublicURL.
func (s *ImageStore) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.PublicURL(""))
	if !ok || key == "" || strings.ContainsAny(key, "/?#") {
		return "", false
	}
	return key, true
}

// PublicURL returns the URL an object is served from.
func (s *ImageStore) PublicURL(key string) string {
	return s.publicBase + "/" + s.bucket + "/" + key
}

// NewObjectKey builds "<unix millis>-<random>[-<slug>]<ext>". The random token keeps keys unique
// when the same name is uploaded twice within one millisecond. sniffedExt replaces whatever
// extension originalName claims; the name's own extension is used only when sniffedExt is empty.
func NewObjectKey(now time.Time, originalName, sniffedExt string) string {
	base := path.Base(strings.ReplaceAll(originalName, "\\", "/"))
	ext := strings.ToLower(sniffedExt)
	if ext == "" {
		ext = strings.ToLower(path.Ext(base))
	}
	if ext == "." {
		ext = ""
	}
	name := slug.Make(strings.TrimSuffix(base, path.Ext(base)))
	if len(name) > 40 {
		name = strings.Trim(name[:40], "-")
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	key := fmt.Sprintf("%d-%s", now.UnixMilli(), token)
	if name != "" {
		key += "-" + name
	}
	return key + ext
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}
