package storage

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"igharvest/pkg/config"
	"igharvest/pkg/logger"
)

// ObjectPutter is the part of the S3 API the mirror needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror copies a harvest's output directory to an S3 compatible bucket
type S3Mirror struct {
	client      ObjectPutter
	bucket      string
	prefix      string
	concurrency int
	logger      logger.Logger
}

// NewS3Mirror creates a mirror from the archive.s3 configuration section
func NewS3Mirror(cfg config.S3Config, log logger.Logger) (*S3Mirror, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("s3 mirror needs a bucket")
	}

	opts := s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		// MinIO and other self-hosted endpoints only support path style
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return NewS3MirrorWithClient(s3.New(opts), cfg.Bucket, cfg.Prefix, log), nil
}

// NewS3MirrorWithClient creates a mirror around an existing client
func NewS3MirrorWithClient(client ObjectPutter, bucket, prefix string, log logger.Logger) *S3Mirror {
	if log == nil {
		log = logger.GetLogger()
	}
	return &S3Mirror{
		client:      client,
		bucket:      bucket,
		prefix:      strings.Trim(prefix, "/"),
		concurrency: 4,
		logger:      log.WithField("component", "s3"),
	}
}

// Key returns the object key for a path relative to the mirrored directory
func (m *S3Mirror) Key(rel string) string {
	rel = filepath.ToSlash(rel)
	if m.prefix == "" {
		return rel
	}
	return path.Join(m.prefix, rel)
}

// MirrorDir uploads every file below dir and returns how many were uploaded
func (m *S3Mirror) MirrorDir(ctx context.Context, dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && !strings.HasSuffix(d.Name(), tempSuffix) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for _, file := range files {
		g.Go(func() error {
			rel, err := filepath.Rel(dir, file)
			if err != nil {
				return err
			}
			return m.upload(ctx, file, m.Key(rel))
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	m.logger.InfoWithFields("Output mirrored to S3", map[string]interface{}{
		"bucket": m.bucket,
		"prefix": m.prefix,
		"files":  len(files),
	})
	return len(files), nil
}

// MirrorFile uploads a single file under its base name
func (m *S3Mirror) MirrorFile(ctx context.Context, file string) error {
	return m.upload(ctx, file, m.Key(filepath.Base(file)))
}

func (m *S3Mirror) upload(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("opening %s: %w", file, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", file, err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	}
	if ct := contentType(file); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := m.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("uploading %s to s3: %w", key, err)
	}

	m.logger.DebugWithFields("Uploaded object", map[string]interface{}{
		"key":  key,
		"size": info.Size(),
	})
	return nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".zst":
		return "application/zstd"
	case ".csv":
		return "text/csv"
	default:
		return mime.TypeByExtension(filepath.Ext(file))
	}
}

// WithPrefix returns a mirror that writes below sub inside the current prefix
func (m *S3Mirror) WithPrefix(sub string) *S3Mirror {
	clone := *m
	clone.prefix = strings.Trim(m.Key(strings.Trim(sub, "/")), "/")
	return &clone
}
