package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// Store is the capability the issue workflow needs from binary storage.
// Keys are passed without extension; the store appends the extension that
// belongs to the bucket (pdf for issue archives, jpeg for covers).
type Store interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket string) error
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)
	Put(ctx context.Context, bucket, key, contentType string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, bucket, key string) error
	Copy(ctx context.Context, bucket, oldKey, newKey string) error
	LocationOf(bucket, key string) string
}

type Config struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	IssueBucket string
	CoverBucket string
	PublicHost  string
	UseSSL      bool
}

// Client wraps MinIO with the two-bucket layout used for issues and covers.
type Client struct {
	client      *minio.Client
	issueBucket string
	coverBucket string
	publicHost  string
	log         *logrus.Logger
}

func NewClient(cfg Config, log *logrus.Logger) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Client{
		client:      mc,
		issueBucket: cfg.IssueBucket,
		coverBucket: cfg.CoverBucket,
		publicHost:  cfg.PublicHost,
		log:         log,
	}, nil
}

// IssueBucket and CoverBucket expose the configured bucket names so the
// workflow layer never hardcodes them.
func (c *Client) IssueBucket() string { return c.issueBucket }
func (c *Client) CoverBucket() string { return c.coverBucket }

// extensionFor returns the stored file extension for a bucket. Cover images
// keep a fixed jpeg extension regardless of the uploaded MIME type so URL
// derivation stays pure.
func (c *Client) extensionFor(bucket string) string {
	if bucket == c.coverBucket {
		return "jpeg"
	}
	return "pdf"
}

func (c *Client) objectName(bucket, key string) string {
	return key + "." + c.extensionFor(bucket)
}

func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, c.diag("BucketExists", bucket, "", err)
	}
	return exists, nil
}

func (c *Client) CreateBucket(ctx context.Context, bucket string) error {
	err := c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "BucketAlreadyOwnedByYou" || resp.Code == "BucketAlreadyExists" {
			return nil
		}
		return c.diag("CreateBucket", bucket, "", err)
	}

	// Objects must be publicly readable once uploaded.
	policy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Effect": "Allow",
				"Principal": {"AWS": ["*"]},
				"Action": ["s3:GetObject"],
				"Resource": ["arn:aws:s3:::%s/*"]
			}
		]
	}`, bucket)
	if err := c.client.SetBucketPolicy(ctx, bucket, policy); err != nil {
		c.log.WithError(err).WithField("bucket", bucket).
			Warn("failed to set public read policy")
	}
	c.log.WithField("bucket", bucket).Info("created storage bucket")
	return nil
}

func (c *Client) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := c.client.StatObject(ctx, bucket, c.objectName(bucket, key), minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, c.diag("ObjectExists", bucket, key, err)
	}
	return true, nil
}

// Put uploads with overwrite semantics and returns the public location.
func (c *Client) Put(ctx context.Context, bucket, key, contentType string, r io.Reader, size int64) (string, error) {
	_, err := c.client.PutObject(ctx, bucket, c.objectName(bucket, key), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", c.diag("Put", bucket, key, err)
	}
	return c.LocationOf(bucket, key), nil
}

// Delete is best-effort: removing a missing object is not an error.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	err := c.client.RemoveObject(ctx, bucket, c.objectName(bucket, key), minio.RemoveObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil
		}
		return c.diag("Delete", bucket, key, err)
	}
	return nil
}

// Copy duplicates an object under a new key. The old object is left in
// place; rename is copy-then-delete at the workflow level.
func (c *Client) Copy(ctx context.Context, bucket, oldKey, newKey string) error {
	_, err := c.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: bucket, Object: c.objectName(bucket, newKey)},
		minio.CopySrcOptions{Bucket: bucket, Object: c.objectName(bucket, oldKey)},
	)
	if err != nil {
		return c.diag("Copy", bucket, oldKey, err)
	}
	return nil
}

// LocationOf derives the public URL without a network call.
func (c *Client) LocationOf(bucket, key string) string {
	return fmt.Sprintf("https://%s.%s/%s.%s", bucket, c.publicHost, key, c.extensionFor(bucket))
}

// diag logs the provider's request metadata before handing the error back.
func (c *Client) diag(op, bucket, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	c.log.WithFields(logrus.Fields{
		"op":         op,
		"bucket":     bucket,
		"key":        key,
		"request_id": resp.RequestID,
		"host_id":    resp.HostID,
	}).Error(err)
	return fmt.Errorf("%s %s/%s: %w", op, bucket, key, err)
}
