package bucket

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"

	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

var logger = log.WithField("package", "bucket")

// Config carries everything needed to reach one bucket on an
// S3-compatible object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Secure    bool
}

// ObjectInfo is one entry of a listing stream. Err is set when the
// listing itself failed; such an entry terminates the stream.
type ObjectInfo struct {
	Object models.BucketObject
	Err    error
}

// ObjectStore is the S3-compatible surface the pipeline needs: a
// fail-fast connectivity probe, recursive listing, and object download.
type ObjectStore interface {
	Probe(ctx context.Context) error
	ListObjects(ctx context.Context, prefix string) <-chan ObjectInfo
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// Client is the minio-backed ObjectStore.
type Client struct {
	mc     *minio.Client
	bucket string
}

var _ ObjectStore = (*Client)(nil)

// NewClient builds a minio client from the config. No network call is
// made here; Probe performs the connectivity check.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, models.NewError(models.KindConfiguration, "object store endpoint and bucket are required")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, models.WrapError(models.KindConfiguration, err, "failed to create object store client")
	}
	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

// Probe verifies the bucket exists and is reachable.
func (c *Client) Probe(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return models.WrapError(models.KindConnectivity, err, "cannot reach bucket %q", c.bucket)
	}
	if !exists {
		return models.NewError(models.KindConnectivity, "bucket %q does not exist", c.bucket)
	}
	logger.WithField("bucket", c.bucket).Info("Bucket connectivity check passed")
	return nil
}

// ListObjects streams every object under prefix, recursively. The
// returned channel closes when the listing ends or ctx is cancelled.
func (c *Client) ListObjects(ctx context.Context, prefix string) <-chan ObjectInfo {
	out := make(chan ObjectInfo)
	go func() {
		defer close(out)
		for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				out <- ObjectInfo{Err: models.WrapError(models.KindConnectivity, obj.Err, "listing bucket %q failed", c.bucket)}
				return
			}
			select {
			case out <- ObjectInfo{Object: models.BucketObject{Key: obj.Key, Size: obj.Size}}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// GetObject downloads one object in full.
func (c *Client) GetObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, models.WrapError(models.KindConnectivity, err, "failed to get object %q", key)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, models.WrapError(models.KindConnectivity, err, "failed to read object %q", key)
	}
	return data, nil
}
