package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI mirrors the method signatures of *dynamodb.Client that we use,
// allowing tests to substitute a scripted fake.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// TodoService translates item operations into calls against our DynamoDB
// table. Every write addresses a single (ownerId, itemId) key, there are no
// multi-item transactions and concurrent writes to the same key are last
// write wins.
type TodoService struct {
	client DynamoAPI
	table  string
}

// NewTodoService creates a new todo service using the passed in client and
// table name
func NewTodoService(client DynamoAPI, table string) *TodoService {
	return &TodoService{client: client, table: table}
}

func (s *TodoService) itemKey(ownerID, itemID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ownerId": &types.AttributeValueMemberS{Value: ownerID},
		"itemId":  &types.AttributeValueMemberS{Value: itemID},
	}
}

// ListAll returns every item in the table, following the scan cursor until
// it is exhausted. Only used for operational counts, user facing listing is
// always by owner.
func (s *TodoService) ListAll(ctx context.Context) ([]*TodoItem, error) {
	items := make([]*TodoItem, 0, 10)

	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("error scanning todos table: %w", err)
		}

		page := make([]*TodoItem, 0, len(resp.Items))
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("error unmarshaling todo items: %w", err)
		}
		items = append(items, page...)

		if resp.LastEvaluatedKey == nil {
			return items, nil
		}
		startKey = resp.LastEvaluatedKey
	}
}

// ListByOwner returns the items belonging to the given owner, narrowed by the
// given completion filter
func (s *TodoService) ListByOwner(ctx context.Context, ownerID string, filter Filter) ([]*TodoItem, error) {
	builder := expression.NewBuilder().WithKeyCondition(
		expression.Key("ownerId").Equal(expression.Value(ownerID)),
	)

	switch filter {
	case FilterDone:
		builder = builder.WithFilter(expression.Name("done").Equal(expression.Value(true)))
	case FilterTodo:
		builder = builder.WithFilter(expression.Name("done").Equal(expression.Value(false)))
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("error building query expression: %w", err)
	}

	items := make([]*TodoItem, 0, 10)

	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("error querying todos for owner: %w", err)
		}

		page := make([]*TodoItem, 0, len(resp.Items))
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("error unmarshaling todo items: %w", err)
		}
		items = append(items, page...)

		if resp.LastEvaluatedKey == nil {
			return items, nil
		}
		startKey = resp.LastEvaluatedKey
	}
}

// Create writes the passed in item. Item IDs are random so an insert never
// races another caller, collisions are treated as negligible.
func (s *TodoService) Create(ctx context.Context, item *TodoItem) error {
	d, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("error marshaling todo item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      d,
	})
	if err != nil {
		return fmt.Errorf("error putting todo item: %w", err)
	}
	return nil
}

// Get returns the item with the given key, or ErrNotFound
func (s *TodoService) Get(ctx context.Context, ownerID, itemID string) (*TodoItem, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       s.itemKey(ownerID, itemID),
	})
	if err != nil {
		return nil, fmt.Errorf("error getting todo item: %w", err)
	}
	if len(resp.Item) == 0 {
		return nil, ErrNotFound
	}

	item := &TodoItem{}
	if err := attributevalue.UnmarshalMap(resp.Item, item); err != nil {
		return nil, fmt.Errorf("error unmarshaling todo item: %w", err)
	}
	return item, nil
}

// Update overwrites the mutable fields of the item with the given key,
// returning ErrNotFound if no such item exists under that owner. The
// existence condition closes DynamoDB's update-on-missing-key upsert gap.
func (s *TodoService) Update(ctx context.Context, ownerID, itemID string, update *TodoUpdate) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.
			Set(expression.Name("name"), expression.Value(update.Name)).
			Set(expression.Name("dueDate"), expression.Value(update.DueDate)).
			Set(expression.Name("done"), expression.Value(update.Done)),
		).
		WithCondition(expression.AttributeExists(expression.Name("ownerId"))).
		Build()
	if err != nil {
		return fmt.Errorf("error building update expression: %w", err)
	}

	return s.updateItem(ctx, ownerID, itemID, expr)
}

// SetAttachmentURL overwrites the attachment URL of the item with the given key
func (s *TodoService) SetAttachmentURL(ctx context.Context, ownerID, itemID, url string) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("attachmentUrl"), expression.Value(url))).
		WithCondition(expression.AttributeExists(expression.Name("ownerId"))).
		Build()
	if err != nil {
		return fmt.Errorf("error building update expression: %w", err)
	}

	return s.updateItem(ctx, ownerID, itemID, expr)
}

// ClearAttachment removes the attachment URL attribute from the item with the
// given key, so an item without an attachment never carries an empty string
// sentinel
func (s *TodoService) ClearAttachment(ctx context.Context, ownerID, itemID string) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Remove(expression.Name("attachmentUrl"))).
		WithCondition(expression.AttributeExists(expression.Name("ownerId"))).
		Build()
	if err != nil {
		return fmt.Errorf("error building update expression: %w", err)
	}

	return s.updateItem(ctx, ownerID, itemID, expr)
}

func (s *TodoService) updateItem(ctx context.Context, ownerID, itemID string, expr expression.Expression) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.itemKey(ownerID, itemID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("error updating todo item: %w", err)
	}
	return nil
}

// Delete removes the item with the given key. Deleting an absent item is not
// an error so deletes are idempotent.
func (s *TodoService) Delete(ctx context.Context, ownerID, itemID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.itemKey(ownerID, itemID),
	})
	if err != nil {
		return fmt.Errorf("error deleting todo item: %w", err)
	}
	return nil
}
