package source

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used for ranged reads
type S3API interface {
	manager.DownloadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Object reads byte ranges of one S3 object
type S3Object struct {
	client     S3API
	downloader *manager.Downloader
	bucket     string
	key        string
}

// NewS3Object wraps an existing client
func NewS3Object(client S3API, bucket, key string) *S3Object {
	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		d.Concurrency = 1
	})
	return &S3Object{
		client:     client,
		downloader: downloader,
		bucket:     bucket,
		key:        key,
	}
}

// OpenS3 loads the default AWS configuration and opens bucket/key as a chunked source
func OpenS3(ctx context.Context, region, bucket, key string, chunkSize int64) (*RangeSource, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	obj := NewS3Object(s3.NewFromConfig(awsCfg), bucket, key)
	return NewRangeSource(ctx, obj.String(), obj, chunkSize)
}

// String returns the s3:// URI of the object
func (o *S3Object) String() string {
	return "s3://" + o.bucket + "/" + o.key
}

// Size returns the object's content length
func (o *S3Object) Size(ctx context.Context) (int64, error) {
	out, err := o.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return 0, err
	}
	return aws.ToInt64(out.ContentLength), nil
}

// ReadRange downloads [off, off+n)
func (o *S3Object) ReadRange(ctx context.Context, off, n int64) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	buf := manager.NewWriteAtBuffer(make([]byte, 0, n))
	_, err := o.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+n-1)),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close is a no-op; S3 clients hold no per-object resources
func (o *S3Object) Close() error { return nil }
