// Package apitest runs the full API in-process on sqlite, miniredis and an in-memory object store.
package apitest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"techlam/internal/app"
	"techlam/internal/cache"
	"techlam/internal/config"
	"techlam/internal/db"
	"techlam/internal/model"
)

// Server is a running API backed by throwaway stores.
type Server struct {
	*httptest.Server
	App     *app.App
	DB      *gorm.DB
	Redis   *miniredis.Miniredis
	Objects *MemoryObjects
	Mailer  *CapturingMailer
	Config  *config.Config
}

// DefaultConfig is a configuration with lenient rate limits and email verification off.
func DefaultConfig() *config.Config {
	return &config.Config{
		LogLevel: "error",
		Server: config.ServerConfig{
			AllowedOrigins: []string{"*"},
		},
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret",
			AccessTokenTTL:    15 * time.Minute,
			RefreshTokenTTL:   24 * time.Hour,
			VerificationTTL:   time.Hour,
			MinPasswordLength: 6,
			VerifyURL:         "http://api.test/api/auth/verify",
		},
		Storage: config.StorageConfig{
			Bucket:        "project-images",
			PublicBaseURL: "http://cdn.test",
			MaxImageBytes: 1 << 20,
		},
		Rate: config.RateConfig{
			AuthPerMinute:    6000,
			AuthBurst:        1000,
			EnquiryPerMinute: 6000,
			EnquiryBurst:     1000,
		},
	}
}

// NewServer starts a server. Options mutate DefaultConfig before wiring.
func NewServer(t testing.TB, opts ...func(*config.Config)) *Server {
	t.Helper()
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gormDB))

	mr := miniredis.RunT(t)
	cacheClient := cache.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	objects := NewMemoryObjects()
	mailer := &CapturingMailer{}
	a := app.New(app.Options{
		Config:  cfg,
		DB:      gormDB,
		Cache:   cacheClient,
		Objects: objects,
		Mailer:  mailer,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	srv := httptest.NewServer(a.Echo)
	t.Cleanup(func() {
		srv.Close()
		_ = cacheClient.Close()
		_ = sqlDB.Close()
	})

	return &Server{
		Server:  srv,
		App:     a,
		DB:      gormDB,
		Redis:   mr,
		Objects: objects,
		Mailer:  mailer,
		Config:  cfg,
	}
}

// GrantRole assigns role to the registered user with email.
func (s *Server) GrantRole(t testing.TB, email string, role model.Role) {
	t.Helper()
	ctx := context.Background()
	user, err := s.App.Users.FindByEmail(ctx, strings.ToLower(email))
	require.NoError(t, err)
	require.NoError(t, s.App.Roles.Assign(ctx, user.ID, role))
}

// CapturingMailer records verification links by email.
type CapturingMailer struct {
	mu    sync.Mutex
	links map[string]string
}

// SendVerification remembers the latest link for email.
func (m *CapturingMailer) SendVerification(_ context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = make(map[string]string)
	}
	m.links[email] = link
	return nil
}

// Link returns the latest link sent to email.
func (m *CapturingMailer) Link(email string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[email]
	return link, ok
}

// MemoryObjects is an in-memory object store. Setting Err makes every write fail.
type MemoryObjects struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	Err     error
}

// NewMemoryObjects creates an empty store.
func NewMemoryObjects() *MemoryObjects {
	return &MemoryObjects{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (m *MemoryObjects) BucketExists(_ context.Context, bucket string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buckets[bucket], nil
}

func (m *MemoryObjects) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[bucket] = true
	return nil
}

func (m *MemoryObjects) SetBucketPolicy(context.Context, string, string) error {
	return nil
}

func (m *MemoryObjects) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return minio.UploadInfo{}, m.Err
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	m.objects[bucket+"/"+key] = buf.Bytes()
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: n}, nil
}

func (m *MemoryObjects) RemoveObject(_ context.Context, bucket, key string, _ minio.RemoveObjectOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[bucket+"/"+key]; !ok {
		return errors.New("no such key")
	}
	delete(m.objects, bucket+"/"+key)
	return nil
}

// Len returns the number of stored objects.
func (m *MemoryObjects) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// SetErr switches write failures on or off.
func (m *MemoryObjects) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}
