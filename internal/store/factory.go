package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gorm.io/gorm"
)

// Config selects and configures the adapter for a deployment.
type Config struct {
	Kind     string
	Static   StaticConfig
	DynamoDB DynamoDBConfig
	S3       S3Config
}

// StaticConfig points the static adapter at a JSON file. Empty uses the
// embedded snapshot.
type StaticConfig struct {
	Path string
}

// DynamoDBConfig addresses the configuration item.
type DynamoDBConfig struct {
	Table         string
	Key           string
	Region        string
	Endpoint      string
	CreateTimeout time.Duration
}

// S3Config addresses the configuration object. A non-empty endpoint enables
// path-style addressing for MinIO and similar services.
type S3Config struct {
	Bucket   string
	Key      string
	Region   string
	Endpoint string
}

var errNilDB = errors.New("store: database handle is required")

// New builds the adapter named by cfg.Kind. Relational kinds use db, which
// stays owned by the caller.
func New(ctx context.Context, cfg Config, db *gorm.DB) (Store, error) {
	kind, err := ParseKind(cfg.Kind)
	if err != nil {
		return nil, err
	}

	var s Store
	switch kind {
	case KindKV:
		if db == nil {
			return nil, errNilDB
		}
		s = NewKVStore(db)
	case KindHistory:
		if db == nil {
			return nil, errNilDB
		}
		s = NewHistoryStore(db)
	case KindStatic:
		static, err := NewStaticStore(cfg.Static.Path)
		if err != nil {
			return nil, err
		}
		s = static
	case KindDynamoDB:
		client, err := newDynamoClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, err
		}
		s = NewDynamoStore(client, cfg.DynamoDB.Table, cfg.DynamoDB.Key, WithTableCreateTimeout(cfg.DynamoDB.CreateTimeout))
	case KindS3:
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("store: s3 bucket is required")
		}
		client, err := newS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		s = NewObjectStore(client, cfg.S3.Bucket, cfg.S3.Key, cfg.S3.Region)
	}

	return Instrument(s), nil
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

func newDynamoClient(ctx context.Context, cfg DynamoDBConfig) (*dynamodb.Client, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}

	var opts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	return dynamodb.NewFromConfig(awsCfg, opts...), nil
}

func newS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, opts...), nil
}
