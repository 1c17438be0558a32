package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDynamo struct {
	items map[string]map[string]types.AttributeValue

	putInputs    []*dynamodb.PutItemInput
	updateInputs []*dynamodb.UpdateItemInput
	scanInputs   []dynamodb.ScanInput
	scanPages    [][]map[string]types.AttributeValue

	updateErr error
	created   []string
	existing  map[string]bool
}

func (m *mockDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	id := in.Key["id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: m.items[aws.ToString(in.TableName)+"/"+id]}, nil
}

func (m *mockDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInputs = append(m.putInputs, in)
	if m.items == nil {
		m.items = map[string]map[string]types.AttributeValue{}
	}
	id := in.Item["id"].(*types.AttributeValueMemberS).Value
	m.items[aws.ToString(in.TableName)+"/"+id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.updateInputs = append(m.updateInputs, in)
	return &dynamodb.UpdateItemOutput{}, m.updateErr
}

func (m *mockDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	id := in.Key["id"].(*types.AttributeValueMemberS).Value
	delete(m.items, aws.ToString(in.TableName)+"/"+id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.scanInputs = append(m.scanInputs, *in)
	page := len(m.scanInputs) - 1
	out := &dynamodb.ScanOutput{}
	if page < len(m.scanPages) {
		out.Items = m.scanPages[page]
	}
	if page+1 < len(m.scanPages) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "cursor"}}
	}
	return out, nil
}

func (m *mockDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if m.existing[aws.ToString(in.TableName)] {
		return &dynamodb.DescribeTableOutput{}, nil
	}
	return nil, &types.ResourceNotFoundException{Message: aws.String("not found")}
}

func (m *mockDynamo) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.created = append(m.created, aws.ToString(in.TableName))
	return &dynamodb.CreateTableOutput{}, nil
}

func item(t *testing.T, v map[string]any) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return av
}

func TestDynamoStore_AddUsesPrefixedTableAndCondition(t *testing.T) {
	mock := &mockDynamo{}
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	s := NewDynamo(mock, "clinicheck_", WithClock(fixedClock(now)), WithIDGenerator(sequentialIDs()))

	id, err := s.Add(context.Background(), "citas", map[string]any{
		"estado":    "pendiente",
		"createdAt": ServerTimestamp,
	})
	require.NoError(t, err)
	assert.Equal(t, "doc1", id)

	require.Len(t, mock.putInputs, 1)
	put := mock.putInputs[0]
	assert.Equal(t, "clinicheck_citas", aws.ToString(put.TableName))
	assert.Equal(t, "attribute_not_exists(id)", aws.ToString(put.ConditionExpression))

	doc, err := s.Get(context.Background(), "citas", id)
	require.NoError(t, err)
	assert.Equal(t, "pendiente", doc.String("estado"))
	assert.NotContains(t, doc.Data, "id")
	created, ok := Time(doc, "createdAt")
	require.True(t, ok)
	assert.True(t, created.Equal(now))
}

func TestDynamoStore_SetOverwritesWithoutCondition(t *testing.T) {
	mock := &mockDynamo{}
	s := NewDynamo(mock, "")

	require.NoError(t, s.Set(context.Background(), "usuarios", "U1", map[string]any{"rol": "admin"}))
	require.Len(t, mock.putInputs, 1)
	assert.Nil(t, mock.putInputs[0].ConditionExpression)
	assert.Equal(t, "usuarios", aws.ToString(mock.putInputs[0].TableName))
}

func TestDynamoStore_GetMissing(t *testing.T) {
	s := NewDynamo(&mockDynamo{}, "")
	_, err := s.Get(context.Background(), "citas", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoStore_WhereBuildsFilterAndPaginates(t *testing.T) {
	mock := &mockDynamo{
		scanPages: [][]map[string]types.AttributeValue{
			{item(t, map[string]any{"id": "b", "medicoId": "M1"})},
			{item(t, map[string]any{"id": "a", "medicoId": "M1"})},
		},
	}
	s := NewDynamo(mock, "p_")

	docs, err := s.Where(context.Background(), "citas", "medicoId", "M1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)

	require.Len(t, mock.scanInputs, 2)
	first := mock.scanInputs[0]
	assert.Equal(t, "p_citas", aws.ToString(first.TableName))
	assert.Equal(t, "#f = :v", aws.ToString(first.FilterExpression))
	assert.Equal(t, "medicoId", first.ExpressionAttributeNames["#f"])
	assert.Equal(t, "M1", first.ExpressionAttributeValues[":v"].(*types.AttributeValueMemberS).Value)
	assert.Nil(t, first.ExclusiveStartKey)
	assert.NotNil(t, mock.scanInputs[1].ExclusiveStartKey)
}

func TestDynamoStore_MergeExpression(t *testing.T) {
	mock := &mockDynamo{}
	s := NewDynamo(mock, "")

	err := s.Merge(context.Background(), "citas", "C1", map[string]any{"hora": "11:00", "estado": "confirmado"})
	require.NoError(t, err)

	require.Len(t, mock.updateInputs, 1)
	up := mock.updateInputs[0]
	assert.Equal(t, "SET #n0 = :v0, #n1 = :v1", aws.ToString(up.UpdateExpression))
	assert.Equal(t, "estado", up.ExpressionAttributeNames["#n0"])
	assert.Equal(t, "hora", up.ExpressionAttributeNames["#n1"])
	assert.Equal(t, "attribute_exists(id)", aws.ToString(up.ConditionExpression))
}

func TestDynamoStore_MergeMissingMapsToNotFound(t *testing.T) {
	mock := &mockDynamo{updateErr: &types.ConditionalCheckFailedException{Message: aws.String("failed")}}
	s := NewDynamo(mock, "")

	err := s.Merge(context.Background(), "citas", "C1", map[string]any{"estado": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	mock.updateErr = errors.New("throttled")
	err = s.Merge(context.Background(), "citas", "C1", map[string]any{"estado": "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDynamoStore_Delete(t *testing.T) {
	mock := &mockDynamo{}
	s := NewDynamo(mock, "")
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "citas", "C1", map[string]any{"estado": "x"}))
	require.NoError(t, s.Delete(ctx, "citas", "C1"))
	require.NoError(t, s.Delete(ctx, "citas", "C1"))
	_, err := s.Get(ctx, "citas", "C1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureDynamoTables(t *testing.T) {
	mock := &mockDynamo{existing: map[string]bool{"x_citas": true}}
	created, err := EnsureDynamoTables(context.Background(), mock, "x_", []string{"citas", "pacientes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x_pacientes"}, created)
	assert.Equal(t, []string{"x_pacientes"}, mock.created)
}
