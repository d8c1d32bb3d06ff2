package bulk

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"

	"github.com/meltforce/wodlink/internal/config"
	"github.com/meltforce/wodlink/internal/models"
)

// DefaultPresignExpiry is how long a download link for an exported file
// stays valid.
const DefaultPresignExpiry = 24 * time.Hour

// Sink stores an exported file and returns where it can be fetched.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// FileSink writes exports into a local directory.
type FileSink struct {
	Dir string
}

// Put writes data to Dir/name, replacing any previous export.
func (s FileSink) Put(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	p := filepath.Join(s.Dir, name)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return "", fmt.Errorf("renaming %s: %w", name, err)
	}
	return p, nil
}

// S3Sink uploads exports to an S3-compatible bucket and returns a presigned
// download URL.
type S3Sink struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	// Prefix is prepended to every object key.
	Prefix  string
	Expires time.Duration
}

// NewS3Sink creates a sink for cfg.Bucket. A non-empty cfg.Endpoint selects an
// S3-compatible service with path-style addressing.
func NewS3Sink(ctx context.Context, cfg config.S3Config) (*S3Sink, error) {
	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsConfig, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Sink{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		Expires: DefaultPresignExpiry,
	}, nil
}

// Put uploads data under Prefix/name.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := name
	if s.Prefix != "" {
		key = path.Join(s.Prefix, name)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to bucket %s: %w", key, s.bucket, err)
	}

	expires := s.Expires
	if expires <= 0 {
		expires = DefaultPresignExpiry
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presigning %s: %w", key, err)
	}
	return req.URL, nil
}

// Exporter writes bulk files to a sink.
type Exporter struct {
	sink Sink
	log  *slog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(sink Sink, log *slog.Logger) *Exporter {
	return &Exporter{sink: sink, log: log}
}

// Master exports every collection and returns the file location.
func (e *Exporter) Master(ctx context.Context, cols models.Collections) (string, error) {
	data, err := ExportMaster(cols)
	if err != nil {
		return "", fmt.Errorf("serializing master export: %w", err)
	}
	return e.put(ctx, MasterFile, data)
}

// Blueprints exports the template library and returns the file location.
func (e *Exporter) Blueprints(ctx context.Context, templates []models.Template) (string, error) {
	data, err := ExportBlueprints(templates)
	if err != nil {
		return "", fmt.Errorf("serializing blueprint export: %w", err)
	}
	return e.put(ctx, BlueprintFile, data)
}

func (e *Exporter) put(ctx context.Context, name string, data []byte) (string, error) {
	loc, err := e.sink.Put(ctx, name, data)
	if err != nil {
		return "", err
	}
	e.log.Info("export written", "file", name, "size", humanize.Bytes(uint64(len(data))))
	return loc, nil
}
