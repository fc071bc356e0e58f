package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ajitpratap0/chunkframe/pkg/config"
	"github.com/ajitpratap0/chunkframe/pkg/parseerrors"
)

// Location is a parsed source URI
type Location struct {
	Scheme string // "file", "s3" or "gs"
	Bucket string
	Path   string
}

// ParseURI accepts a local path, file://path, s3://bucket/key or gs://bucket/object
func ParseURI(uri string) (Location, error) {
	if uri == "" {
		return Location{}, parseerrors.New(parseerrors.ErrorTypeConfig, "source uri is required")
	}
	if !strings.Contains(uri, "://") {
		return Location{Scheme: "file", Path: uri}, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, parseerrors.Wrap(err, parseerrors.ErrorTypeConfig, "invalid source uri").
			WithDetail("uri", uri)
	}
	switch u.Scheme {
	case "file":
		return Location{Scheme: "file", Path: u.Host + u.Path}, nil
	case "s3", "gs":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, parseerrors.New(parseerrors.ErrorTypeConfig, "source uri needs a bucket and an object").
				WithDetail("uri", uri)
		}
		return Location{Scheme: u.Scheme, Bucket: u.Host, Path: key}, nil
	default:
		return Location{}, parseerrors.New(parseerrors.ErrorTypeConfig, fmt.Sprintf("unsupported source scheme %q", u.Scheme)).
			WithDetail("uri", uri)
	}
}

// Open opens the source named by cfg.URI and decodes it from encoding
func Open(ctx context.Context, cfg config.SourceConfig, encoding string) (Source, error) {
	loc, err := ParseURI(cfg.URI)
	if err != nil {
		return nil, err
	}

	var src Source
	switch loc.Scheme {
	case "file":
		src, err = NewFileSource(loc.Path, cfg.ChunkSize)
	case "s3":
		src, err = OpenS3(ctx, cfg.Region, loc.Bucket, loc.Path, cfg.ChunkSize)
	case "gs":
		src, err = OpenGCS(ctx, cfg.CredentialsFile, loc.Bucket, loc.Path, cfg.ChunkSize)
	}
	if err != nil {
		return nil, parseerrors.Wrap(err, parseerrors.ErrorTypeChunkRead, "failed to open source").
			WithDetail("uri", cfg.URI)
	}

	decoded, err := WithEncoding(src, encoding)
	if err != nil {
		_ = src.Close()
		return nil, parseerrors.Wrap(err, parseerrors.ErrorTypeConfig, "invalid encoding")
	}
	return decoded, nil
}
