package contentstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/klauspost/compress/zstd"
	"github.com/shackstack/shackstack/internal/cidutil"
	"github.com/shackstack/shackstack/internal/common"
)

// Compressed objects are wrapped in a small envelope so that plain and
// compressed objects can live in the same bucket.
const (
	envelopeMagic   = "SSZ"
	envelopeVersion = 1
	envelopeHeader  = len(envelopeMagic) + 1
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Options configures the connection to an S3-compatible backend.
type S3Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewS3Client builds a path-style S3 client with static credentials, which
// is what MinIO expects.
func NewS3Client(ctx context.Context, o S3Options) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			o.AccessKey,
			o.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(opts *s3.Options) {
		if o.BaseEndpoint != "" {
			opts.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
		opts.UsePathStyle = true
	}), nil
}

// S3Store addresses objects in a bucket by the CID of their JSON encoding.
// The CID is computed locally, so the bucket itself knows nothing about
// content addressing.
type S3Store struct {
	client   S3API
	bucket   string
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

func NewS3Store(client S3API, bucket string, compress bool) (*S3Store, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	return &S3Store{
		client:   client,
		bucket:   bucket,
		compress: compress,
		encoder:  enc,
		decoder:  dec,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, value any) (string, error) {
	b, err := encode(value)
	if err != nil {
		return "", err
	}
	id, err := cidutil.Sum(b)
	if err != nil {
		return "", err
	}

	body := b
	contentType := "application/json"
	if s.compress {
		body = s.seal(b)
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(id),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", id, err)
	}
	return id, nil
}

func (s *S3Store) Get(ctx context.Context, cid string) (any, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cid),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("content %s: %w", cid, common.ErrNotFound)
		}
		return nil, fmt.Errorf("s3 get %s: %w", cid, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", cid, err)
	}

	b, err := s.open(raw)
	if err != nil {
		return nil, err
	}
	if err := cidutil.Verify(cid, b); err != nil {
		return nil, err
	}
	return decode(b)
}

// Pin checks the object exists. S3 has no garbage collection to pin
// against.
func (s *S3Store) Pin(ctx context.Context, cid string) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cid),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return fmt.Errorf("content %s: %w", cid, common.ErrNotFound)
		}
		return fmt.Errorf("s3 head %s: %w", cid, err)
	}
	return nil
}

func (s *S3Store) seal(plain []byte) []byte {
	out := make([]byte, 0, envelopeHeader+len(plain))
	out = append(out, envelopeMagic...)
	out = append(out, envelopeVersion)
	return s.encoder.EncodeAll(plain, out)
}

func (s *S3Store) open(stored []byte) ([]byte, error) {
	if len(stored) < envelopeHeader || string(stored[:len(envelopeMagic)]) != envelopeMagic {
		return stored, nil
	}
	if stored[len(envelopeMagic)] != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", common.ErrCorrupt, stored[len(envelopeMagic)])
	}
	plain, err := s.decoder.DecodeAll(stored[envelopeHeader:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorrupt, err)
	}
	return plain, nil
}
