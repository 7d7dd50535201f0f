// Package objectstore provides export targets for rendered plans and a factory
// that picks one from a target URI.
package objectstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/afero"

	zerrors "github.com/zzenonn/zplan/internal/errors"
)

// RepositoryType represents the type of object storage
type RepositoryType string

const (
	S3Type    RepositoryType = "s3"
	GCSType   RepositoryType = "gcs"
	LocalType RepositoryType = "file"
)

// Target is a parsed output location.
type Target struct {
	Type   RepositoryType
	Bucket string
	Key    string
}

func (t Target) String() string {
	switch t.Type {
	case S3Type:
		return "s3://" + t.Bucket + "/" + t.Key
	case GCSType:
		return "gs://" + t.Bucket + "/" + t.Key
	default:
		return t.Key
	}
}

// ObjectRepositoryFactory creates object repository instances. Cloud clients
// are created on first use so local exports never touch credentials.
type ObjectRepositoryFactory struct {
	fs        afero.Fs
	awsRegion string

	mu        sync.Mutex
	awsConfig *aws.Config
	gcsClient *storage.Client
}

// NewObjectRepositoryFactory creates a new factory
func NewObjectRepositoryFactory(fs afero.Fs, awsRegion string) *ObjectRepositoryFactory {
	return &ObjectRepositoryFactory{
		fs:        fs,
		awsRegion: awsRegion,
	}
}

// CreateRepository creates a repository for target
func (f *ObjectRepositoryFactory) CreateRepository(ctx context.Context, target Target) (ObjectRepository, error) {
	switch target.Type {
	case LocalType:
		repo := NewLocalObjectRepository(f.fs, "")
		return &repo, nil
	case S3Type:
		cfg, err := f.AWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		repo := NewS3ObjectRepository(NewS3ObjectStore(cfg).Client, target.Bucket)
		return &repo, nil
	case GCSType:
		client, err := f.loadGCSClient(ctx)
		if err != nil {
			return nil, err
		}
		repo := NewGCSObjectRepository(client, target.Bucket)
		return &repo, nil
	default:
		return nil, fmt.Errorf("unsupported repository type: %s", target.Type)
	}
}

// Close releases any cloud clients the factory created.
func (f *ObjectRepositoryFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gcsClient == nil {
		return nil
	}
	err := f.gcsClient.Close()
	f.gcsClient = nil
	return err
}

// AWSConfig loads the shared AWS configuration once and caches it.
func (f *ObjectRepositoryFactory) AWSConfig(ctx context.Context) (aws.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.awsConfig != nil {
		return *f.awsConfig, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if f.awsRegion != "" {
		opts = append(opts, awsconfig.WithRegion(f.awsRegion))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	f.awsConfig = &cfg
	return cfg, nil
}

func (f *ObjectRepositoryFactory) loadGCSClient(ctx context.Context) (*storage.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gcsClient != nil {
		return f.gcsClient, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to create GCS client: %w", err)
	}
	f.gcsClient = client
	return client, nil
}

// ParseTarget parses an output target.
// Formats: "s3://bucket/key", "gs://bucket/key", "file://path", or a bare path.
func ParseTarget(target string) (Target, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return Target{}, fmt.Errorf("%w: target cannot be empty", zerrors.ErrInvalidTarget)
	}

	if !strings.Contains(target, "://") {
		return Target{Type: LocalType, Key: target}, nil
	}

	parts := strings.SplitN(target, "://", 2)
	scheme := strings.ToLower(strings.TrimSpace(parts[0]))
	rest := strings.TrimSpace(parts[1])

	var repoType RepositoryType
	switch scheme {
	case "file":
		if rest == "" {
			return Target{}, fmt.Errorf("%w: path cannot be empty", zerrors.ErrInvalidTarget)
		}
		return Target{Type: LocalType, Key: rest}, nil
	case "s3":
		repoType = S3Type
	case "gs":
		repoType = GCSType
	default:
		return Target{}, fmt.Errorf("%w: unsupported scheme: %s", zerrors.ErrInvalidTarget, scheme)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Target{}, fmt.Errorf("%w: bucket name cannot be empty", zerrors.ErrInvalidTarget)
	}
	if key == "" {
		return Target{}, fmt.Errorf("%w: object key cannot be empty", zerrors.ErrInvalidTarget)
	}

	return Target{
		Type:   repoType,
		Bucket: bucket,
		Key:    key,
	}, nil
}
