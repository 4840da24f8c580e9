// Package blob stores media objects on S3-compatible storage.
package blob

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config describes the bucket the service writes into.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	// Prefix is prepended to every object key
	Prefix string
	// PublicURL is the base URL clients read objects from,
	// defaults to the endpoint plus bucket
	PublicURL string
}

// Store puts objects and issues presigned upload URLs.
type Store struct {
	cli *minio.Client
	cfg Config
}

// UploadGrant is a time-limited permission to POST exactly one object.
//
// The client sends a multipart form to UploadURL with every FormData field
// plus the `file` part, storage rejects other content types or sizes.
type UploadGrant struct {
	UploadURL   string            `json:"uploadUrl"`
	Method      string            `json:"method"`
	FormData    map[string]string `json:"formData"`
	BlobURL     string            `json:"blobUrl"`
	Key         string            `json:"key"`
	ContentType string            `json:"contentType"`
	MaxSize     int64             `json:"maxSize"`
	ExpiresAt   time.Time         `json:"expiresAt"`
}

// Object is a stored object.
type Object struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// New creates a store on the configured endpoint.
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("blob endpoint and bucket are required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new minio client")
	}

	return &Store{cli: cli, cfg: cfg}, nil
}

// NewObjectKey builds `<prefix>/<yyyy>/<mm>/<uuid><ext>` for a client file name.
func (s *Store) NewObjectKey(filename string) string {
	return newObjectKey(s.cfg.Prefix, filename, gutils.Clock.GetUTCNow())
}

func newObjectKey(prefix, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " ?#%&") {
		ext = ""
	}

	key := path.Join(now.Format("2006"), now.Format("01"), uuid.NewString()+ext)
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}

	return key
}

// URL returns the public URL of key.
func (s *Store) URL(key string) string {
	return publicURL(s.cfg, key)
}

func publicURL(cfg Config, key string) string {
	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}

	return base + "/" + key
}

// KeyFromURL extracts the object key from a public URL, or returns raw unchanged
// when it is already a key.
func (s *Store) KeyFromURL(raw string) string {
	return keyFromURL(s.cfg, raw)
}

func keyFromURL(cfg Config, raw string) string {
	base := publicURL(cfg, "")
	if strings.HasPrefix(raw, base) {
		return strings.TrimPrefix(raw, base)
	}
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		return strings.TrimPrefix(strings.TrimPrefix(u.Path, "/"+cfg.Bucket), "/")
	}

	return strings.TrimPrefix(raw, "/")
}

// PresignUpload returns a presigned POST policy for a fresh key, valid for expire.
// The policy pins the key, contentType and a size of 1..maxSize bytes.
func (s *Store) PresignUpload(ctx context.Context,
	filename, contentType string, maxSize int64, expire time.Duration) (*UploadGrant, error) {
	key := s.NewObjectKey(filename)
	expiresAt := gutils.Clock.GetUTCNow().Add(expire)

	policy, err := uploadPolicy(s.cfg.Bucket, key, contentType, maxSize, expiresAt)
	if err != nil {
		return nil, err
	}

	u, form, err := s.cli.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, errors.Wrapf(err, "presign post %q", key)
	}

	return &UploadGrant{
		UploadURL:   u.String(),
		Method:      "POST",
		FormData:    form,
		BlobURL:     s.URL(key),
		Key:         key,
		ContentType: contentType,
		MaxSize:     maxSize,
		ExpiresAt:   expiresAt,
	}, nil
}

func uploadPolicy(bucket, key, contentType string, maxSize int64, expiresAt time.Time) (*minio.PostPolicy, error) {
	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(bucket); err != nil {
		return nil, errors.Wrap(err, "set policy bucket")
	}
	if err := policy.SetKey(key); err != nil {
		return nil, errors.Wrap(err, "set policy key")
	}
	if err := policy.SetExpires(expiresAt); err != nil {
		return nil, errors.Wrap(err, "set policy expiry")
	}
	if err := policy.SetContentType(contentType); err != nil {
		return nil, errors.Wrap(err, "set policy content type")
	}
	if err := policy.SetContentLengthRange(1, maxSize); err != nil {
		return nil, errors.Wrap(err, "set policy size range")
	}

	return policy, nil
}

// Put uploads size bytes from r under a fresh key derived from filename.
func (s *Store) Put(ctx context.Context, filename, contentType string, r io.Reader, size int64) (*Object, error) {
	key := s.NewObjectKey(filename)
	return s.PutWithKey(ctx, key, contentType, r, size)
}

// PutWithKey uploads to an explicit key.
func (s *Store) PutWithKey(ctx context.Context, key, contentType string, r io.Reader, size int64) (*Object, error) {
	info, err := s.cli.PutObject(ctx, s.cfg.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "put object %q", key)
	}

	return &Object{
		URL:         s.URL(key),
		Key:         key,
		Size:        info.Size,
		ContentType: contentType,
	}, nil
}

// Delete removes the object.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.cli.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "remove object %q", key)
	}

	return nil
}
