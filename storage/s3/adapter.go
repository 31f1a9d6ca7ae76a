package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	wperrors "github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/storage"
)

const (
	// DefaultEndpoint is used when no endpoint is configured.
	DefaultEndpoint = "s3.amazonaws.com"
	// ListPageSize bounds the number of keys returned per listing request.
	ListPageSize = 1000

	directoryContentType = "application/x-directory"
)

// S3Adapter stores files as objects below an optional key prefix of one bucket.
type S3Adapter struct {
	mu     sync.RWMutex
	logger *log.Logger

	client objectClient
	bucket string
	prefix string
	acl    string
}

type S3AdapterOptions struct {
	Endpoint string
	Region   string
	Bucket   string
	// Prefix is prepended to every key, without leading slash
	Prefix string
	// ACL is a canned ACL applied to written objects, e.g. "public-read"
	ACL string

	AccessKey    string
	SecretKey    string
	SessionToken string
	Insecure     bool
}

// NewS3Adapter creates an adapter for the configured bucket. Without static
// keys, credentials are resolved from the AWS environment variables, the
// shared credentials file and finally the instance role.
func NewS3Adapter(options *S3AdapterOptions, logger *log.Logger) (*S3Adapter, error) {
	if options == nil || options.Bucket == "" {
		return nil, wperrors.Config(nil, "s3 adapter requires a bucket")
	}

	endpoint := options.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	var creds *credentials.Credentials
	if options.AccessKey != "" {
		creds = credentials.NewStaticV4(options.AccessKey, options.SecretKey, options.SessionToken)
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{
				Client: &http.Client{
					Transport: http.DefaultTransport,
				},
			},
		})
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: !options.Insecure,
		Region: options.Region,
	})
	if err != nil {
		return nil, wperrors.Config(err, "invalid s3 endpoint '%s'", endpoint)
	}

	return newS3Adapter(&minioClient{client: client}, options.Bucket, options.Prefix, options.ACL, logger), nil
}

func newS3Adapter(client objectClient, bucket, prefix, acl string, logger *log.Logger) *S3Adapter {
	if logger == nil {
		logger = log.NewDiscard()
	}

	return &S3Adapter{
		logger: logger.Named("s3"),
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		acl:    acl,
	}
}

// ParseURL splits an "s3://bucket/prefix" location into bucket and prefix.
func ParseURL(location string) (bucket, prefix string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("'%s' is not an s3:// location", location)
	}

	return u.Host, strings.Trim(u.Path, "/"), nil
}

// Returns the identifier name defined for this adapter
func (*S3Adapter) Name() string {
	return "s3"
}

func (sa *S3Adapter) Bucket() string {
	return sa.bucket
}

// Open verifies that the bucket exists and is accessible.
func (sa *S3Adapter) Open(ctx context.Context) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	exists, err := sa.client.BucketExists(ctx, sa.bucket)
	if err != nil {
		return sa.mapError(err)
	}

	if !exists {
		return wperrors.StorageUnavailable(wperrors.ErrNotExist, sa.bucket)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this adapter.
func (sa *S3Adapter) Close(ctx context.Context) error {
	return nil
}

// GetCapabilities returns a list of capabilities supported by this adapter.
func (sa *S3Adapter) GetCapabilities() *storage.Capabilities {
	return storage.NewCapabilities(
		storage.CapabilityTrustedHash,
		storage.CapabilityRedirect,
	)
}

func (sa *S3Adapter) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	switch minio.ToErrorResponse(err).Code {
	case "NoSuchBucket", "NoSuchKey":
		return wperrors.StorageUnavailable(err, sa.bucket)
	case "AccessDenied", "AllAccessDisabled", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return wperrors.StorageAccessDenied(err, sa.bucket)
	default:
		return wperrors.StorageIO(err, sa.bucket)
	}
}
