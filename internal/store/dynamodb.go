package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/wolfman30/medic-pro/internal/clinic"
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type dynamoItem struct {
	RecordKey string `dynamodbav:"recordKey"`
	Document  string `dynamodbav:"document"`
	UpdatedAt string `dynamodbav:"updatedAt"`
}

// DynamoStore keeps one item per record key.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	now       func() time.Time
}

func NewDynamoStore(client dynamoAPI, tableName string) *DynamoStore {
	if client == nil {
		panic("store: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("store: table name cannot be empty")
	}
	return &DynamoStore{client: client, tableName: tableName, now: time.Now}
}

func (s *DynamoStore) Load(ctx context.Context, key string) (*clinic.Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("store: dynamodb get: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return Decode([]byte(item.Document))
}

func (s *DynamoStore) Save(ctx context.Context, key string, rec *clinic.Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(dynamoItem{
		RecordKey: key,
		Document:  string(data),
		UpdatedAt: s.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("store: dynamodb marshal: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("store: dynamodb put: %w", err)
	}
	return nil
}

func (s *DynamoStore) Clear(ctx context.Context, key string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.itemKey(key),
	}); err != nil {
		return fmt.Errorf("store: dynamodb delete: %w", err)
	}
	return nil
}

func (s *DynamoStore) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"recordKey": &types.AttributeValueMemberS{Value: key},
	}
}
