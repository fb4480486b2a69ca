// Package s3 implements a chunk store on Amazon S3 or a compatible service such as MinIO.
package s3

import (
	"bytes"
	"context"
	stderrs "errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var _ bzz.Store = &Store{}

// Store is an S3-based implementation of a chunk store.
// Each chunk is an object whose key is its hex address under a fixed prefix,
// so the bucket's key order is address order.
type Store struct {
	client *s3.Client
	bucket string
}

// Config holds the parameters for connecting to an S3 bucket.
type Config struct {
	Endpoint        string // optional, e.g. http://localhost:9000 for MinIO
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// New produces a new Store using the given client and bucket.
func New(client *s3.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Connect creates an S3 client from cfg and produces a Store using it.
// Path-style addressing is used,
// which MinIO requires and AWS accepts.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})
	return New(client, cfg.Bucket), nil
}

const keyPrefix = "chunks/"

func chunkKey(addr bzz.Address) string {
	return keyPrefix + addr.String()
}

// Get gets the chunk data at addr.
func (s *Store) Get(ctx context.Context, addr bzz.Address) ([]byte, error) {
	key := chunkKey(addr)
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if stderrs.As(err, &noKey) {
			return nil, bzz.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting object %s", key)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	return data, errors.Wrapf(err, "reading object %s", key)
}

// Put adds a chunk to the store if it wasn't already present.
// It uses a conditional write,
// so concurrent writers of the same chunk agree on which one added it.
func (s *Store) Put(ctx context.Context, addr bzz.Address, data []byte) (bool, error) {
	key := chunkKey(addr)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		IfNoneMatch: aws.String("*"),
		ContentType: aws.String("application/octet-stream"),
	})
	if isPreconditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "putting object %s", key)
	}
	return true, nil
}

func isPreconditionFailed(err error) bool {
	var ae smithy.APIError
	if !stderrs.As(err, &ae) {
		return false
	}
	switch ae.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

// ListAddrs produces all chunk addresses in the store, in lexicographic order.
func (s *Store) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:     aws.String(s.bucket),
		Prefix:     aws.String(keyPrefix),
		StartAfter: aws.String(chunkKey(start)),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return errors.Wrap(err, "listing objects")
		}
		for _, obj := range page.Contents {
			addr, err := bzz.AddressFromHex(strings.TrimPrefix(aws.ToString(obj.Key), keyPrefix))
			if err != nil {
				continue
			}
			if err = f(addr); err != nil {
				return err
			}
		}
	}
	return nil
}

func init() {
	store.Register("s3", func(ctx context.Context, conf map[string]interface{}) (bzz.Store, error) {
		bucket, err := store.String(conf, "bucket")
		if err != nil {
			return nil, err
		}
		cfg := Config{Bucket: bucket}
		cfg.Endpoint, _ = conf["endpoint"].(string)
		cfg.Region, _ = conf["region"].(string)
		cfg.AccessKeyID, _ = conf["access_key_id"].(string)
		cfg.SecretAccessKey, _ = conf["secret_access_key"].(string)
		if cfg.Region == "" {
			cfg.Region = "us-east-1"
		}
		return Connect(ctx, cfg)
	})
}
