package source

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSObject reads byte ranges of one Cloud Storage object
type GCSObject struct {
	client *storage.Client
	handle *storage.ObjectHandle
	bucket string
	object string
}

// OpenGCS creates a storage client and opens bucket/object as a chunked source.
// An empty credentialsFile uses application default credentials.
func OpenGCS(ctx context.Context, credentialsFile, bucket, object string, chunkSize int64) (*RangeSource, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	obj := &GCSObject{
		client: client,
		handle: client.Bucket(bucket).Object(object),
		bucket: bucket,
		object: object,
	}
	src, err := NewRangeSource(ctx, obj.String(), obj, chunkSize)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return src, nil
}

// String returns the gs:// URI of the object
func (o *GCSObject) String() string {
	return "gs://" + o.bucket + "/" + o.object
}

// Size returns the object size from its attributes
func (o *GCSObject) Size(ctx context.Context) (int64, error) {
	attrs, err := o.handle.Attrs(ctx)
	if err != nil {
		return 0, err
	}
	return attrs.Size, nil
}

// ReadRange reads [off, off+n)
func (o *GCSObject) ReadRange(ctx context.Context, off, n int64) ([]byte, error) {
	r, err := o.handle.NewRangeReader(ctx, off, n)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close closes the storage client
func (o *GCSObject) Close() error {
	return o.client.Close()
}
