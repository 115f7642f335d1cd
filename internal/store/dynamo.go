package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/majorjayant/siteconfig/pkg/logger"
)

const (
	dynamoPartitionKey = "id"
	dynamoDataAttr     = "data"
	dynamoVersionAttr  = "version"
	dynamoUpdatedAttr  = "updated_at"

	defaultDynamoTable = "site_config"
	defaultDynamoKey   = "site_config"

	maxConditionalRetries = 3
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoStore keeps the configuration as a single item whose data attribute
// is a string map. Writes are optimistic: the version attribute guards the
// read-merge-put cycle against concurrent writers.
type DynamoStore struct {
	client      DynamoAPI
	table       string
	key         string
	createWait  time.Duration
	waiterDelay time.Duration
	log         *zap.Logger
}

// DynamoOption customises a DynamoStore.
type DynamoOption func(*DynamoStore)

// WithTableCreateTimeout bounds how long a lazily created table may take to
// become active.
func WithTableCreateTimeout(d time.Duration) DynamoOption {
	return func(s *DynamoStore) {
		if d > 0 {
			s.createWait = d
		}
	}
}

// NewDynamoStore returns a document adapter for table, addressing the item by key.
func NewDynamoStore(client DynamoAPI, table, key string, opts ...DynamoOption) *DynamoStore {
	if table == "" {
		table = defaultDynamoTable
	}
	if key == "" {
		key = defaultDynamoKey
	}
	s := &DynamoStore{
		client:      client,
		table:       table,
		key:         key,
		createWait:  2 * time.Minute,
		waiterDelay: time.Second,
		log:         logger.WithModule("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DynamoStore) Kind() Kind { return KindDynamoDB }

func (s *DynamoStore) Read(ctx context.Context) (map[string]string, error) {
	var values map[string]string
	err := s.withTable(ctx, "dynamodb read", func() error {
		var err error
		values, _, err = s.get(ctx)
		return err
	})
	if err != nil {
		return nil, unavailable("dynamodb read", err)
	}
	return values, nil
}

func (s *DynamoStore) Write(ctx context.Context, partial map[string]string) error {
	if len(partial) == 0 {
		return nil
	}

	err := s.withTable(ctx, "dynamodb write", func() error {
		var lastErr error
		for attempt := 0; attempt < maxConditionalRetries; attempt++ {
			current, version, err := s.get(ctx)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}

			lastErr = s.put(ctx, mergeInto(current, partial), version)
			var conflict *types.ConditionalCheckFailedException
			if !errors.As(lastErr, &conflict) {
				return lastErr
			}
			s.log.Debug("dynamodb write conflict, retrying", zap.Int("attempt", attempt+1))
		}
		return fmt.Errorf("concurrent writers kept winning: %w", lastErr)
	})
	if err != nil {
		return unavailable("dynamodb write", err)
	}
	return nil
}

func (s *DynamoStore) Close() error { return nil }

func (s *DynamoStore) itemKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoPartitionKey: &types.AttributeValueMemberS{Value: s.key},
	}
}

// get returns the stored values and their version. A missing item yields
// ErrNotFound with version 0; an item without a version attribute reports 0.
func (s *DynamoStore) get(ctx context.Context) (map[string]string, int64, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.itemKey(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, 0, err
	}
	if out == nil || len(out.Item) == 0 {
		return nil, 0, ErrNotFound
	}

	var version int64
	if n, ok := out.Item[dynamoVersionAttr].(*types.AttributeValueMemberN); ok {
		version, _ = strconv.ParseInt(n.Value, 10, 64)
	}

	data, ok := out.Item[dynamoDataAttr].(*types.AttributeValueMemberM)
	if !ok {
		return nil, version, ErrNotFound
	}

	values := make(map[string]string, len(data.Value))
	for key, attr := range data.Value {
		switch v := attr.(type) {
		case *types.AttributeValueMemberS:
			values[key] = v.Value
		case *types.AttributeValueMemberN:
			values[key] = v.Value
		case *types.AttributeValueMemberBOOL:
			values[key] = strconv.FormatBool(v.Value)
		}
	}
	if len(values) == 0 {
		return nil, version, ErrNotFound
	}
	return values, version, nil
}

func (s *DynamoStore) put(ctx context.Context, values map[string]string, version int64) error {
	data := make(map[string]types.AttributeValue, len(values))
	for key, value := range values {
		data[key] = &types.AttributeValueMemberS{Value: value}
	}

	item := s.itemKey()
	item[dynamoDataAttr] = &types.AttributeValueMemberM{Value: data}
	item[dynamoVersionAttr] = &types.AttributeValueMemberN{Value: strconv.FormatInt(version+1, 10)}
	item[dynamoUpdatedAttr] = &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)}

	in := &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}
	if version == 0 {
		// New item, or one written before versioning (no version attribute).
		in.ConditionExpression = aws.String("attribute_not_exists(#id) OR attribute_not_exists(#version)")
		in.ExpressionAttributeNames = map[string]string{
			"#id":      dynamoPartitionKey,
			"#version": dynamoVersionAttr,
		}
	} else {
		in.ConditionExpression = aws.String("#version = :version")
		in.ExpressionAttributeNames = map[string]string{"#version": dynamoVersionAttr}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":version": &types.AttributeValueMemberN{Value: strconv.FormatInt(version, 10)},
		}
	}

	_, err := s.client.PutItem(ctx, in)
	return err
}

func (s *DynamoStore) withTable(ctx context.Context, op string, fn func() error) error {
	err := fn()
	var missing *types.ResourceNotFoundException
	if err == nil || !errors.As(err, &missing) {
		return err
	}

	s.log.Warn("dynamodb table missing, creating it", zap.String("table", s.table), zap.String("operation", op))
	if createErr := s.createTable(ctx); createErr != nil {
		return fmt.Errorf("%w: create table %s: %w", ErrSchemaMismatch, s.table, createErr)
	}

	err = fn()
	if errors.As(err, &missing) {
		return fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	return err
}

func (s *DynamoStore) createTable(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(dynamoPartitionKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(dynamoPartitionKey), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return err
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay = s.waiterDelay
		o.MaxDelay = 10 * s.waiterDelay
	})
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}, s.createWait)
}

var _ Store = (*DynamoStore)(nil)
