package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-rolegate/internal/domain"
)

type itemPutter interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// AuditRepo appends switch and verification events.
// PK: user_id, SK: event_id (ULID). Items expire through the expires_at TTL.
type AuditRepo struct {
	client    itemPutter
	tableName string
}

func NewAuditRepo(client *dynamodb.Client, tableName string) *AuditRepo {
	return &AuditRepo{client: client, tableName: tableName}
}

// Record writes e. An existing event with the same key is never overwritten.
func (r *AuditRepo) Record(ctx context.Context, e *domain.AuditEvent) error {
	if e.UserID == "" || e.EventID == "" {
		return fmt.Errorf("audit event without key: %w", domain.ErrBadRequest)
	}
	item, err := auditItem(e)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(event_id)"),
	})
	if err != nil {
		return fmt.Errorf("put audit event: %w", err)
	}
	return nil
}

func auditItem(e *domain.AuditEvent) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return nil, fmt.Errorf("marshal audit event: %w", err)
	}
	return item, nil
}
