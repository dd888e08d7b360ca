package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjectClient struct {
	mock.Mock
}

func (m *mockObjectClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *mockObjectClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *mockObjectClient) SetBucketPolicy(ctx context.Context, bucketName, policy string) error {
	args := m.Called(ctx, bucketName, policy)
	return args.Error(0)
}

func (m *mockObjectClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *mockObjectClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Error(0)
}

func TestNewObjectKey_SameNameSameMillisecondDiffers(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	a := NewObjectKey(now, "roof.jpg", ".jpg")
	b := NewObjectKey(now, "roof.jpg", ".jpg")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "1700000000123-"))
	assert.True(t, strings.HasSuffix(a, "-roof.jpg"))
}

func TestNewObjectKey(t *testing.T) {
	now := time.UnixMilli(42)
	tests := []struct {
		name       string
		original   string
		sniffed    string
		wantSuffix string
	}{
		{"keeps extension lowercased", "Solar Farm.PNG", "", "-solar-farm.png"},
		{"uses sniffed when name has none", "photo", ".webp", "-photo.webp"},
		{"sniffed type wins over name", "x.html", ".png", "-x.png"},
		{"sniffed spelling wins", "roof.jpeg", ".jpg", "-roof.jpg"},
		{"strips directories", `C:\Users\me\panel.jpeg`, "", "-panel.jpeg"},
		{"no usable name", ".jpg", ".jpg", ".jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewObjectKey(now, tt.original, tt.sniffed)
			assert.True(t, strings.HasPrefix(key, "42-"), key)
			assert.True(t, strings.HasSuffix(key, tt.wantSuffix), key)
			assert.NotContains(t, key, "/")
		})
	}
}

func TestImageStore_Put(t *testing.T) {
	client := new(mockObjectClient)
	store := NewImageStore(client, "project-images", "https://cdn.example.com/")
	store.now = func() time.Time { return time.UnixMilli(1000) }

	body := strings.NewReader("data")
	client.On("PutObject", mock.Anything, "project-images", mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "1000-") && strings.HasSuffix(key, "-site.png")
	}), body, int64(4), mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
		return opts.ContentType == "image/png"
	})).Return(minio.UploadInfo{}, nil)

	key, url, err := store.Put(context.Background(), "site.png", ".png", body, 4, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/project-images/"+key, url)
	client.AssertExpectations(t)
}

func TestImageStore_PutFailure(t *testing.T) {
	client := new(mockObjectClient)
	store := NewImageStore(client, "b", "http://localhost:9000")

	client.On("PutObject", mock.Anything, "b", mock.Anything, mock.Anything, int64(1), mock.Anything).
		Return(minio.UploadInfo{}, errors.New("quota exceeded"))

	_, _, err := store.Put(context.Background(), "a.jpg", ".jpg", strings.NewReader("x"), 1, "image/jpeg")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestImageStore_RemoveURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantKey string
	}{
		{"own object", "https://cdn.example.com/project-images/1000-abc-site.png", "1000-abc-site.png"},
		{"other host", "https://example.com/project-images/1000-abc-site.png", ""},
		{"other bucket", "https://cdn.example.com/archive/1000-abc-site.png", ""},
		{"bucket root", "https://cdn.example.com/project-images/", ""},
		{"nested path", "https://cdn.example.com/project-images/a/b.png", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockObjectClient)
			store := NewImageStore(client, "project-images", "https://cdn.example.com")
			if tt.wantKey != "" {
				client.On("RemoveObject", mock.Anything, "project-images", tt.wantKey, minio.RemoveObjectOptions{}).Return(nil)
			}

			require.NoError(t, store.RemoveURL(context.Background(), tt.url))
			if tt.wantKey == "" {
				client.AssertNotCalled(t, "RemoveObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			client.AssertExpectations(t)
		})
	}

	t.Run("failure is reported", func(t *testing.T) {
		client := new(mockObjectClient)
		store := NewImageStore(client, "b", "http://x")
		client.On("RemoveObject", mock.Anything, "b", "k.png", minio.RemoveObjectOptions{}).Return(errors.New("access denied"))

		assert.ErrorContains(t, store.RemoveURL(context.Background(), "http://x/b/k.png"), "access denied")
	})
}

func TestImageStore_EnsureBucket(t *testing.T) {
	t.Run("creates missing bucket", func(t *testing.T) {
		client := new(mockObjectClient)
		store := NewImageStore(client, "b", "http://x")
		client.On("BucketExists", mock.Anything, "b").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "b", minio.MakeBucketOptions{}).Return(nil)
		client.On("SetBucketPolicy", mock.Anything, "b", mock.Anything).Return(nil)

		require.NoError(t, store.EnsureBucket(context.Background()))
		client.AssertExpectations(t)
	})

	t.Run("existing bucket", func(t *testing.T) {
		client := new(mockObjectClient)
		store := NewImageStore(client, "b", "http://x")
		client.On("BucketExists", mock.Anything, "b").Return(true, nil)
		client.On("SetBucketPolicy", mock.Anything, "b", mock.Anything).Return(nil)

		require.NoError(t, store.EnsureBucket(context.Background()))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})
}
