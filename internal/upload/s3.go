package upload

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignExpiry is how long a redirect URL for an image stays valid.
const PresignExpiry = 15 * time.Minute

// ObjectAPI is the subset of *s3.Client used for writes.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner is the subset of *s3.PresignClient used for reads.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// newPresignClient is a seam so tests can avoid real signing.
var newPresignClient = func(c *s3.Client) Presigner {
	return s3.NewPresignClient(c)
}

// S3Store keeps images in a bucket and serves them through short-lived
// presigned GET redirects, so the bucket can stay private.
type S3Store struct {
	api       ObjectAPI
	presigner Presigner
	bucket    string
	prefix    string
	logger    *slog.Logger
}

var _ Store = (*S3Store)(nil)

func NewS3Store(client *s3.Client, bucket, prefix string, logger *slog.Logger) *S3Store {
	return &S3Store{
		api:       client,
		presigner: newPresignClient(client),
		bucket:    bucket,
		prefix:    prefix,
		logger:    logger,
	}
}

func (s *S3Store) key(name string) *string {
	return aws.String(s.prefix + name)
}

func (s *S3Store) Save(ctx context.Context, name, contentType string, r io.Reader, size int64) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           s.key(name),
		Body:          r,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	return err
}

func (s *S3Store) Delete(ctx context.Context, name string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(name),
	})
	return err
}

func (s *S3Store) Serve(w http.ResponseWriter, r *http.Request, name string) {
	req, err := s.presigner.PresignGetObject(r.Context(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(name),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		s.logger.Error("presigning image", slog.String("name", name), slog.String("error", err.Error()))
		http.Error(w, "image unavailable", http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, req.URL, http.StatusTemporaryRedirect)
}
