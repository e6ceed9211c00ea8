// Package s3 stores graph documents in an S3 bucket and reads inventory
// documents back out of one.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/fabiosv/aws-resources-mapper/db"
	"github.com/fabiosv/aws-resources-mapper/pkg/api"
)

// ObjectAPI is the subset of the S3 client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

type Config struct {
	Bucket string
	Prefix string
	Encode db.EncodeOptions
}

type Store struct {
	client ObjectAPI
	cfg    Config
	logger zerolog.Logger
}

// NewClient builds an S3 client. A custom endpoint switches to path-style
// addressing, which local S3-compatible servers expect.
func NewClient(awsCfg aws.Config, endpoint string) *awss3.Client {
	return awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

func NewStore(client ObjectAPI, cfg Config, logger zerolog.Logger) *Store {
	return &Store{client: client, cfg: cfg, logger: logger}
}

func (s *Store) Name() string {
	return "s3"
}

// Key returns the object key a graph for networkID is written to.
func (s *Store) Key(networkID string) string {
	name := db.FileName(networkID, s.cfg.Encode)
	if s.cfg.Prefix == "" {
		return name
	}
	return path.Join(s.cfg.Prefix, name)
}

func (s *Store) location(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, key)
}

func (s *Store) Save(ctx context.Context, g *api.NetworkGraph) (string, error) {
	key := s.Key(g.NetworkID)
	location := s.location(key)

	data, err := db.Encode(g, s.cfg.Encode)
	if err != nil {
		return location, err
	}

	_, err = s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(db.ContentType(s.cfg.Encode)),
	})
	if err != nil {
		return location, fmt.Errorf("failed to put object: %w", err)
	}

	s.logger.Debug().
		Str("location", location).
		Int("bytes", len(data)).
		Msg("graph uploaded")
	return location, nil
}

// Fetch reads an object from the bucket. A missing key wraps fs.ErrNotExist
// so the inventory loader treats it like a missing file.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%s: %w", s.location(key), fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", s.location(key), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", s.location(key), err)
	}
	return data, nil
}

func (s *Store) Close() error {
	return nil
}
