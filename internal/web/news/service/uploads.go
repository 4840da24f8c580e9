package service

import (
	"context"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/multilingual-news/internal/library/metrics"
	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
	"github.com/Laisky/multilingual-news/library/blob"
)

const (
	// DefaultMaxUploadBytes proxied upload size limit
	DefaultMaxUploadBytes = 50 << 20
	// presignTTL lifetime of a direct upload url
	presignTTL = 15 * time.Minute
)

// BlobStore object storage used for media and synthesized audio
type BlobStore interface {
	PresignUpload(ctx context.Context,
		filename, contentType string, maxSize int64, expire time.Duration) (*blob.UploadGrant, error)
	Put(ctx context.Context, filename, contentType string, r io.Reader, size int64) (*blob.Object, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(raw string) string
}

// Uploads media uploads to object storage
type Uploads struct {
	logger   glog.Logger
	store    BlobStore
	maxBytes int64
}

// NewUploads create the upload service, store may be nil when storage is disabled
func NewUploads(logger glog.Logger, store BlobStore, maxBytes int64) *Uploads {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Uploads{logger: logger, store: store, maxBytes: maxBytes}
}

// MaxBytes upload size limit
func (s *Uploads) MaxBytes() int64 {
	return s.maxBytes
}

func (s *Uploads) enabled() error {
	if s.store == nil {
		return errors.Wrap(model.ErrUnavailable, "object storage is not configured")
	}
	return nil
}

// mediaType checks contentType is an image, video or audio type and returns it without parameters
func mediaType(contentType string) (string, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", model.Invalid("contentType", "invalid content type %q", contentType)
	}

	switch strings.SplitN(mt, "/", 2)[0] {
	case "image", "video", "audio":
		return mt, nil
	default:
		return "", model.Invalid("contentType", "content type %q is not allowed", mt)
	}
}

func cleanFilename(filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "", model.Invalid("filename", "invalid filename")
	}
	return name, nil
}

// Grant a presigned form the client POSTs one object with,
// bound to the checked content type and the size limit
func (s *Uploads) Grant(ctx context.Context, in *dto.UploadGrantInput) (*blob.UploadGrant, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}
	mt, err := mediaType(in.ContentType)
	if err != nil {
		return nil, err
	}
	name, err := cleanFilename(in.Filename)
	if err != nil {
		return nil, err
	}

	grant, err := s.store.PresignUpload(ctx, name, mt, s.maxBytes, presignTTL)
	if err != nil {
		return nil, errors.Wrap(err, "presign upload")
	}

	metrics.Uploads.WithLabelValues("presign").Inc()
	return grant, nil
}

// Put store an uploaded file of size bytes
func (s *Uploads) Put(ctx context.Context, filename, contentType string, r io.Reader, size int64) (*blob.Object, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, model.Invalid("file", "file is empty")
	}
	if size > s.maxBytes {
		return nil, model.Invalid("file", "file exceeds %d bytes", s.maxBytes)
	}
	mt, err := mediaType(contentType)
	if err != nil {
		return nil, err
	}
	name, err := cleanFilename(filename)
	if err != nil {
		return nil, err
	}

	obj, err := s.store.Put(ctx, name, mt, r, size)
	if err != nil {
		return nil, errors.Wrap(err, "put object")
	}

	metrics.Uploads.WithLabelValues("proxy").Inc()
	s.logger.Info("media uploaded", zap.String("key", obj.Key), zap.Int64("size", obj.Size))
	return obj, nil
}

// Delete remove an object by key or public url
func (s *Uploads) Delete(ctx context.Context, keyOrURL string) error {
	if err := s.enabled(); err != nil {
		return err
	}

	key := s.store.KeyFromURL(strings.TrimSpace(keyOrURL))
	if key == "" || strings.Contains(key, "..") {
		return model.Invalid("key", "invalid key")
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return errors.Wrap(err, "delete object")
	}

	s.logger.Info("media deleted", zap.String("key", key))
	return nil
}
