// Package s3store keeps each table as one zstd-compressed JSON array object in
// an S3-compatible bucket. A PutObject replaces the whole table atomically.
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/klauspost/compress/zstd"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/store"
)

const (
	objectSuffix    = ".json.zst"
	contentType     = "application/json"
	contentEncoding = "zstd"
	defaultRegion   = "us-east-1"
)

// Config holds connection parameters. Credentials fall back to the default
// AWS chain when AccessKeyID is empty.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
}

// ObjectAPI is the subset of *s3.Client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store implements store.Store on S3.
type Store struct {
	client ObjectAPI
	bucket string
	prefix string
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

var _ store.Store = (*Store)(nil)

// New builds an S3 client from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, ferrors.ConfigError("s3 bucket required").Build()
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, ferrors.ConfigError("load aws config").WithCause(err).Build()
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix)
}

// NewWithClient wraps an existing client.
func NewWithClient(client ObjectAPI, bucket, prefix string) (*Store, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, ferrors.InternalError("create zstd encoder").WithCause(err).Build()
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, ferrors.InternalError("create zstd decoder").WithCause(err).Build()
	}
	return &Store{client: client, bucket: bucket, prefix: prefix, enc: enc, dec: dec}, nil
}

// Key is the object key of table.
func (s *Store) Key(table string) string {
	return path.Join(s.prefix, table+objectSuffix)
}

func (s *Store) SaveAll(ctx context.Context, table string, rows []string) error {
	if err := store.ValidateTable(table); err != nil {
		return err
	}
	if rows == nil {
		rows = []string{}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", table, err)
	}
	body := s.enc.EncodeAll(raw, nil)
	key := s.Key(table)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(body),
		ContentLength:   aws.Int64(int64(len(body))),
		ContentType:     aws.String(contentType),
		ContentEncoding: aws.String(contentEncoding),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// LoadAll treats a missing object as an empty table.
func (s *Store) LoadAll(ctx context.Context, table string) ([]string, error) {
	if err := store.ValidateTable(table); err != nil {
		return nil, err
	}
	key := s.Key(table)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	raw, err := s.dec.DecodeAll(body, nil)
	if err != nil {
		return nil, ferrors.FormatError("decompress table object").
			WithCause(err).
			WithContext("key", key).
			Build()
	}
	var rows []string
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, ferrors.FormatError("decode table object").
			WithCause(err).
			WithContext("key", key).
			Build()
	}
	return rows, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func (s *Store) Close() error {
	s.dec.Close()
	return s.enc.Close()
}
