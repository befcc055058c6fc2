package models_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskwell/taskwell/models"
)

// fakeDynamo is a scripted DynamoAPI that records the inputs it receives and
// plays back canned outputs
type fakeDynamo struct {
	getIns    []*dynamodb.GetItemInput
	getOut    *dynamodb.GetItemOutput
	getErr    error
	putIns    []*dynamodb.PutItemInput
	putErr    error
	queryIns  []*dynamodb.QueryInput
	queryOuts []*dynamodb.QueryOutput
	queryErr  error
	scanIns   []*dynamodb.ScanInput
	scanOuts  []*dynamodb.ScanOutput
	scanErr   error
	updateIns []*dynamodb.UpdateItemInput
	updateErr error
	deleteIns []*dynamodb.DeleteItemInput
	deleteErr error
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getIns = append(f.getIns, params)
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getOut != nil {
		return f.getOut, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putIns = append(f.putIns, params)
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryIns = append(f.queryIns, params)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	out := &dynamodb.QueryOutput{}
	if len(f.queryOuts) > 0 {
		out = f.queryOuts[0]
		f.queryOuts = f.queryOuts[1:]
	}
	return out, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanIns = append(f.scanIns, params)
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := &dynamodb.ScanOutput{}
	if len(f.scanOuts) > 0 {
		out = f.scanOuts[0]
		f.scanOuts = f.scanOuts[1:]
	}
	return out, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updateIns = append(f.updateIns, params)
	return &dynamodb.UpdateItemOutput{}, f.updateErr
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deleteIns = append(f.deleteIns, params)
	return &dynamodb.DeleteItemOutput{}, f.deleteErr
}

func mustMarshalItem(t *testing.T, item *models.TodoItem) map[string]types.AttributeValue {
	d, err := attributevalue.MarshalMap(item)
	require.NoError(t, err)
	return d
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	fake := &fakeDynamo{}
	svc := models.NewTodoService(fake, "TestTodos")

	item := models.NewTodoItem("u1", "Buy milk", "2024-01-01")
	assert.NotEmpty(t, item.ItemID)
	assert.NotEmpty(t, item.CreatedAt)
	assert.False(t, item.Done)

	err := svc.Create(ctx, item)
	assert.NoError(t, err)

	require.Len(t, fake.putIns, 1)
	put := fake.putIns[0]
	assert.Equal(t, "TestTodos", *put.TableName)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, put.Item["ownerId"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Buy milk"}, put.Item["name"])
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: false}, put.Item["done"])

	// no attachment means no attribute, not an empty string
	assert.NotContains(t, put.Item, "attachmentUrl")
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	fake := &fakeDynamo{}
	svc := models.NewTodoService(fake, "TestTodos")

	// item doesn't exist
	_, err := svc.Get(ctx, "u1", "i1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.Len(t, fake.getIns, 1)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, fake.getIns[0].Key["ownerId"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "i1"}, fake.getIns[0].Key["itemId"])

	// item exists
	fake.getOut = &dynamodb.GetItemOutput{Item: mustMarshalItem(t, &models.TodoItem{
		OwnerID: "u1", ItemID: "i1", Name: "Buy milk", CreatedAt: "2024-01-01T10:30:00Z", DueDate: "2024-01-01",
	})}

	item, err := svc.Get(ctx, "u1", "i1")
	assert.NoError(t, err)
	assert.Equal(t, "Buy milk", item.Name)
	assert.Equal(t, "2024-01-01T10:30:00Z", item.CreatedAt)
}

func TestListByOwner(t *testing.T) {
	ctx := context.Background()

	item1 := &models.TodoItem{OwnerID: "u1", ItemID: "i1", Name: "Buy milk", DueDate: "2024-01-01"}
	item2 := &models.TodoItem{OwnerID: "u1", ItemID: "i2", Name: "Walk dog", DueDate: "2024-01-02", Done: true}

	fake := &fakeDynamo{queryOuts: []*dynamodb.QueryOutput{
		{Items: []map[string]types.AttributeValue{mustMarshalItem(t, item1), mustMarshalItem(t, item2)}},
	}}
	svc := models.NewTodoService(fake, "TestTodos")

	items, err := svc.ListByOwner(ctx, "u1", models.FilterAll)
	assert.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Buy milk", items[0].Name)
	assert.Equal(t, "Walk dog", items[1].Name)

	// ALL applies no filter expression
	require.Len(t, fake.queryIns, 1)
	assert.NotNil(t, fake.queryIns[0].KeyConditionExpression)
	assert.Nil(t, fake.queryIns[0].FilterExpression)
	assert.Contains(t, attributeValues(fake.queryIns[0].ExpressionAttributeValues), &types.AttributeValueMemberS{Value: "u1"})

	// DONE adds an equality predicate on done
	fake.queryOuts = []*dynamodb.QueryOutput{{Items: []map[string]types.AttributeValue{mustMarshalItem(t, item2)}}}
	items, err = svc.ListByOwner(ctx, "u1", models.FilterDone)
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Done)

	require.Len(t, fake.queryIns, 2)
	assert.NotNil(t, fake.queryIns[1].FilterExpression)
	assert.Contains(t, attributeValues(fake.queryIns[1].ExpressionAttributeValues), &types.AttributeValueMemberBOOL{Value: true})

	// TODO filters on done == false
	fake.queryOuts = []*dynamodb.QueryOutput{{Items: []map[string]types.AttributeValue{mustMarshalItem(t, item1)}}}
	items, err = svc.ListByOwner(ctx, "u1", models.FilterTodo)
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Done)

	require.Len(t, fake.queryIns, 3)
	assert.Contains(t, attributeValues(fake.queryIns[2].ExpressionAttributeValues), &types.AttributeValueMemberBOOL{Value: false})
}

func TestListByOwnerPagination(t *testing.T) {
	ctx := context.Background()

	item1 := &models.TodoItem{OwnerID: "u1", ItemID: "i1", Name: "One", DueDate: "2024-01-01"}
	item2 := &models.TodoItem{OwnerID: "u1", ItemID: "i2", Name: "Two", DueDate: "2024-01-02"}

	cursor := map[string]types.AttributeValue{"itemId": &types.AttributeValueMemberS{Value: "i1"}}
	fake := &fakeDynamo{queryOuts: []*dynamodb.QueryOutput{
		{Items: []map[string]types.AttributeValue{mustMarshalItem(t, item1)}, LastEvaluatedKey: cursor},
		{Items: []map[string]types.AttributeValue{mustMarshalItem(t, item2)}},
	}}
	svc := models.NewTodoService(fake, "TestTodos")

	items, err := svc.ListByOwner(ctx, "u1", models.FilterAll)
	assert.NoError(t, err)
	assert.Len(t, items, 2)

	// second request resumes from the returned cursor
	require.Len(t, fake.queryIns, 2)
	assert.Nil(t, fake.queryIns[0].ExclusiveStartKey)
	assert.Equal(t, cursor, fake.queryIns[1].ExclusiveStartKey)
}

func TestListAllPagination(t *testing.T) {
	ctx := context.Background()

	item1 := &models.TodoItem{OwnerID: "u1", ItemID: "i1", Name: "One", DueDate: "2024-01-01"}
	item2 := &models.TodoItem{OwnerID: "u2", ItemID: "i2", Name: "Two", DueDate: "2024-01-02"}

	cursor := map[string]types.AttributeValue{"itemId": &types.AttributeValueMemberS{Value: "i1"}}
	fake := &fakeDynamo{scanOuts: []*dynamodb.ScanOutput{
		{Items: []map[string]types.AttributeValue{mustMarshalItem(t, item1)}, LastEvaluatedKey: cursor},
		{Items: []map[string]types.AttributeValue{mustMarshalItem(t, item2)}},
	}}
	svc := models.NewTodoService(fake, "TestTodos")

	items, err := svc.ListAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, items, 2)

	require.Len(t, fake.scanIns, 2)
	assert.Equal(t, cursor, fake.scanIns[1].ExclusiveStartKey)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	fake := &fakeDynamo{}
	svc := models.NewTodoService(fake, "TestTodos")

	err := svc.Update(ctx, "u1", "i1", &models.TodoUpdate{Name: "Buy oat milk", DueDate: "2024-02-01", Done: true})
	assert.NoError(t, err)

	require.Len(t, fake.updateIns, 1)
	in := fake.updateIns[0]
	assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, in.Key["ownerId"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "i1"}, in.Key["itemId"])

	// the write is conditional on the item existing under this owner
	require.NotNil(t, in.ConditionExpression)
	assert.Contains(t, *in.ConditionExpression, "attribute_exists")

	vals := attributeValues(in.ExpressionAttributeValues)
	assert.Contains(t, vals, &types.AttributeValueMemberS{Value: "Buy oat milk"})
	assert.Contains(t, vals, &types.AttributeValueMemberS{Value: "2024-02-01"})
	assert.Contains(t, vals, &types.AttributeValueMemberBOOL{Value: true})

	// a failed condition means the item doesn't exist for this owner
	fake.updateErr = &types.ConditionalCheckFailedException{}
	err = svc.Update(ctx, "u1", "missing", &models.TodoUpdate{Name: "Nope", DueDate: "2024-02-01"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAttachmentURLs(t *testing.T) {
	ctx := context.Background()
	fake := &fakeDynamo{}
	svc := models.NewTodoService(fake, "TestTodos")

	err := svc.SetAttachmentURL(ctx, "u1", "i1", "https://bucket.s3.amazonaws.com/attachments/img1")
	assert.NoError(t, err)

	require.Len(t, fake.updateIns, 1)
	assert.Contains(t, attributeValues(fake.updateIns[0].ExpressionAttributeValues), &types.AttributeValueMemberS{Value: "https://bucket.s3.amazonaws.com/attachments/img1"})
	require.NotNil(t, fake.updateIns[0].ConditionExpression)

	// clearing removes the attribute entirely
	err = svc.ClearAttachment(ctx, "u1", "i1")
	assert.NoError(t, err)

	require.Len(t, fake.updateIns, 2)
	require.NotNil(t, fake.updateIns[1].UpdateExpression)
	assert.Contains(t, *fake.updateIns[1].UpdateExpression, "REMOVE")

	// clearing a missing item is a not found
	fake.updateErr = &types.ConditionalCheckFailedException{}
	err = svc.ClearAttachment(ctx, "u1", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	fake := &fakeDynamo{}
	svc := models.NewTodoService(fake, "TestTodos")

	err := svc.Delete(ctx, "u1", "i1")
	assert.NoError(t, err)

	// deletes are unconditional so a second delete of the same key is a noop
	err = svc.Delete(ctx, "u1", "i1")
	assert.NoError(t, err)

	require.Len(t, fake.deleteIns, 2)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "i1"}, fake.deleteIns[0].Key["itemId"])
}

func attributeValues(m map[string]types.AttributeValue) []types.AttributeValue {
	vals := make([]types.AttributeValue, 0, len(m))
	for _, v := range m {
		vals = append(vals, v)
	}
	return vals
}
