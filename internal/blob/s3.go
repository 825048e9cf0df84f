package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	config "github.com/zacmb/contentsched/configs"
)

// S3Source serves s3://bucket/key asset references from an R2-compatible
// object store.
type S3Source struct {
	cfg config.S3
}

func NewS3Source(cfg config.S3) *S3Source {
	return &S3Source{cfg: cfg}
}

func (s *S3Source) Connect(ctx context.Context) (AssetSession, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.cfg.AccessKey, s.cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", s.cfg.AccountID))
	})

	return &s3Session{client: client}, nil
}

type s3Session struct {
	client *s3.Client
}

func (s *s3Session) ResolveRef(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "s3://") {
		return "", fmt.Errorf("%w: not an s3 url: %s", ErrInvalidAssetRef, rawURL)
	}
	trimmed := strings.TrimPrefix(rawURL, "s3://")
	bucket, key, found := strings.Cut(trimmed, "/")
	if !found || bucket == "" || key == "" {
		return "", fmt.Errorf("%w: missing bucket or key in %s", ErrInvalidAssetRef, rawURL)
	}
	return bucket + "/" + key, nil
}

func (s *s3Session) Metadata(ctx context.Context, assetID string) (*Metadata, error) {
	bucket, key, err := splitAssetID(assetID)
	if err != nil {
		return nil, err
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to head s3 object %s: %w", assetID, err)
	}

	meta := &Metadata{Name: path.Base(key)}
	if head.ContentType != nil {
		meta.MimeType = *head.ContentType
	}
	return meta, nil
}

func (s *s3Session) Download(ctx context.Context, assetID string) (io.ReadCloser, int64, error) {
	bucket, key, err := splitAssetID(assetID)
	if err != nil {
		return nil, 0, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, fmt.Errorf("failed to get s3 object %s: %w", assetID, err)
	}

	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return out.Body, size, nil
}

func splitAssetID(assetID string) (string, string, error) {
	bucket, key, found := strings.Cut(assetID, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: malformed s3 asset id %s", ErrInvalidAssetRef, assetID)
	}
	return bucket, key, nil
}
