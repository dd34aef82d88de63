// Package storage uploads generated artifacts to object storage and builds
// their public URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vidsmith/genmedia-ms-go/internal/generation"
	"github.com/vidsmith/genmedia-ms-go/internal/model"
)

// DefaultServiceHost is the cloud provider host used in the default URL
// template https://{bucket}.{serviceHost}/{key}.
const DefaultServiceHost = "s3.amazonaws.com"

const defaultBackoffUnit = 500 * time.Millisecond

var extByMime = map[string]string{
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
	"audio/wav":       ".wav",
	"audio/x-wav":     ".wav",
	"audio/mpeg":      ".mp3",
	"application/pdf": ".pdf",
}

// Config controls key generation, retry bounds and URL construction.
type Config struct {
	Bucket    string
	KeyPrefix string

	// Endpoint is the storage endpoint the client talks to. When it is not
	// the default cloud host, it also drives custom-endpoint URL layouts.
	Endpoint     string
	UseSSL       bool
	PathStyle    bool
	ServiceHost  string
	PublicDomain string

	MaxRetries  int
	BackoffUnit time.Duration
	ACL         string
}

// Uploader pushes byte buffers to a bucket with bounded retries on transient
// network failures.
type Uploader struct {
	client minioClient
	cfg    Config
	newID  func() string
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewUploader initialises the object-storage client and makes sure the
// bucket exists.
func NewUploader(accessKey, secretKey string, cfg Config) (*Uploader, error) {
	log.Println("initialising object storage client...")
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	u := newUploader(client, cfg)
	ok, err := client.BucketExists(context.Background(), cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: check bucket %q: %w", cfg.Bucket, err)
	}
	if !ok {
		log.Printf("bucket %q does not exist, creating it...", cfg.Bucket)
		if err := client.MakeBucket(context.Background(), cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: create bucket %q: %w", cfg.Bucket, err)
		}
	}
	return u, nil
}

func newUploader(client minioClient, cfg Config) *Uploader {
	if cfg.ServiceHost == "" {
		cfg.ServiceHost = DefaultServiceHost
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = defaultBackoffUnit
	}
	return &Uploader{
		client: client,
		cfg:    cfg,
		newID:  func() string { return uuid.New().String() },
		sleep:  sleepCtx,
	}
}

// Upload stores the buffer under a fresh sortable key and returns the public
// URL. Only transient failures (name resolution, connection timeout) are
// retried; anything else aborts immediately.
func (u *Uploader) Upload(ctx context.Context, data []byte, mimeType string) (*model.UploadResult, error) {
	key := u.objectKey(mimeType)

	opts := minio.PutObjectOptions{ContentType: mimeType}
	if u.cfg.ACL != "" {
		opts.UserMetadata = map[string]string{"x-amz-acl": u.cfg.ACL}
	}

	var lastErr error
	for attempt := 1; attempt <= u.cfg.MaxRetries; attempt++ {
		_, err := u.client.PutObject(ctx, u.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), opts)
		if err == nil {
			return &model.UploadResult{
				URL:      u.objectURL(key),
				FileName: key,
				Bucket:   u.cfg.Bucket,
				MimeType: mimeType,
			}, nil
		}
		lastErr = err
		if !isTransient(err) {
			return nil, &generation.UploadError{Attempts: attempt, Last: err}
		}
		if attempt == u.cfg.MaxRetries {
			break
		}

		delay := (1 << attempt) * u.cfg.BackoffUnit
		log.Printf("transient upload failure (attempt %d/%d), retrying in %s: %v",
			attempt, u.cfg.MaxRetries, delay, err)
		if err := u.sleep(ctx, delay); err != nil {
			return nil, &generation.UploadError{Attempts: attempt, Last: err}
		}
	}
	return nil, &generation.UploadError{Attempts: u.cfg.MaxRetries, Last: lastErr}
}

// objectKey builds a unique, sortable key: prefix + UTC timestamp + short
// unique id + extension derived from the MIME type.
func (u *Uploader) objectKey(mimeType string) string {
	ext, ok := extByMime[strings.ToLower(mimeType)]
	if !ok {
		ext = ".bin"
	}
	id := u.newID()
	if len(id) > 8 {
		id = id[:8]
	}
	ts := time.Now().UTC().Format("20060102T150405")
	return u.cfg.KeyPrefix + ts + "_" + id + ext
}

// objectURL applies the construction strategies in precedence order:
// explicit public-domain override, then custom endpoint (path-style or
// virtual-hosted-style), then the default cloud pattern.
func (u *Uploader) objectURL(key string) string {
	if d := u.cfg.PublicDomain; d != "" {
		return strings.TrimRight(d, "/") + "/" + key
	}
	if u.cfg.Endpoint != "" && u.cfg.Endpoint != u.cfg.ServiceHost {
		scheme := "http"
		if u.cfg.UseSSL {
			scheme = "https"
		}
		endpoint := u.cfg.Endpoint
		if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
			scheme = parsed.Scheme
			endpoint = parsed.Host
		}
		if u.cfg.PathStyle {
			return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, u.cfg.Bucket, key)
		}
		return fmt.Sprintf("%s://%s.%s/%s", scheme, u.cfg.Bucket, endpoint, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", u.cfg.Bucket, u.cfg.ServiceHost, key)
}

// isTransient classifies failures worth retrying: DNS resolution failures
// and network timeouts. Everything else (auth, missing bucket, bad request)
// fails fast.
func isTransient(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
