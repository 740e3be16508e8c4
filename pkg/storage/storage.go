package storage

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mindnestapp/mindnest/pkg/config"
	"github.com/pkg/errors"
)

// ObjectStore is the object-storage surface the rest of the app consumes.
// Stories only ever hold URLs; issuing and revoking them happens here.
type ObjectStore interface {
	PresignedPutURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	PresignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	DeleteObjectByURL(ctx context.Context, rawURL string) error
}

type Service struct {
	client *minio.Client
	bucket string
}

var _ ObjectStore = (*Service)(nil)

func NewService(cfg *config.Config) (*Service, error) {
	client, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Service{
		client: client,
		bucket: cfg.StorageBucket,
	}, nil
}

// NewObjectKey builds a collision-free object key under the given prefix,
// keeping the original file extension.
func NewObjectKey(prefix, filename string) string {
	ext := path.Ext(filename)
	return prefix + "/" + uuid.NewString() + ext
}

func (s *Service) PresignedPutURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, objectKey, expiry)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return u.String(), nil
}

func (s *Service) PresignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, expiry, url.Values{})
	if err != nil {
		return "", errors.WithStack(err)
	}
	return u.String(), nil
}

// DeleteObjectByURL removes the object a stored media URL points at. Deletes
// are retried with exponential backoff since they run best-effort alongside
// story edits and deletes.
func (s *Service) DeleteObjectByURL(ctx context.Context, rawURL string) error {
	objectKey, err := s.objectKeyFromURL(rawURL)
	if err != nil {
		return err
	}

	operation := func() (struct{}, error) {
		err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
		return struct{}{}, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 5 * time.Second
	_, err = backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3))
	return errors.WithStack(err)
}

func (s *Service) objectKeyFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "invalid object URL")
	}
	key := strings.TrimPrefix(u.Path, "/")
	key = strings.TrimPrefix(key, s.bucket+"/")
	if key == "" {
		return "", errors.Errorf("object URL %q has no key", rawURL)
	}
	return key, nil
}
