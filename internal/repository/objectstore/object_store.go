package objectstore

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"
)

// ObjectRepository writes rendered artifacts to a storage target.
type ObjectRepository interface {
	// Upload writes r under key and returns the location it was written to.
	Upload(ctx context.Context, key string, r io.Reader, quiet bool) (string, error)
	GetBucketName() string
	GetStorageType() string
}

type S3Store struct {
	Client *s3.Client
}

func NewS3ObjectStore(awsConfig aws.Config) *S3Store {
	return &S3Store{
		Client: s3.NewFromConfig(awsConfig),
	}
}

// NewS3ObjectRepository creates a new S3 object repository
func NewS3ObjectRepository(client *s3.Client, bucketName string) S3ObjectRepository {
	return S3ObjectRepository{
		uploader:   manager.NewUploader(client),
		bucketName: bucketName,
	}
}

// NewGCSObjectRepository creates a new GCS object repository
func NewGCSObjectRepository(client *storage.Client, bucketName string) GCSObjectRepository {
	return GCSObjectRepository{
		client:     client,
		bucketName: bucketName,
	}
}

// NewLocalObjectRepository creates a repository rooted at dir on fs.
// An empty dir resolves keys against the working directory.
func NewLocalObjectRepository(fs afero.Fs, dir string) LocalObjectRepository {
	return LocalObjectRepository{
		fs:  fs,
		dir: dir,
	}
}
