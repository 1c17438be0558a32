package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type dynamoAdmin interface {
	DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(context.Context, *dynamodb.CreateTableInput, ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoStore maps each collection to the table <prefix><collection> with
// the string hash key "id".
type DynamoStore struct {
	client dynamoAPI
	prefix string
	opts   options
}

var _ Store = (*DynamoStore)(nil)

func NewDynamo(client dynamoAPI, tablePrefix string, opts ...Option) *DynamoStore {
	if client == nil {
		panic("docstore: dynamodb client cannot be nil")
	}
	return &DynamoStore{
		client: client,
		prefix: tablePrefix,
		opts:   buildOptions(opts),
	}
}

func (s *DynamoStore) table(collection string) *string {
	return aws.String(s.prefix + collection)
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		FieldID: &types.AttributeValueMemberS{Value: id},
	}
}

func (s *DynamoStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := checkRef(collection, id); err != nil {
		return nil, err
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      s.table(collection),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return decodeItem(out.Item)
}

func (s *DynamoStore) All(ctx context.Context, collection string) ([]*Document, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: empty collection", ErrInvalidArgument)
	}
	return s.scan(ctx, &dynamodb.ScanInput{
		TableName:      s.table(collection),
		ConsistentRead: aws.Bool(true),
	})
}

func (s *DynamoStore) Where(ctx context.Context, collection, field string, value any) ([]*Document, error) {
	if collection == "" || field == "" {
		return nil, fmt.Errorf("%w: empty collection or field", ErrInvalidArgument)
	}
	want, err := canonicalValue(value)
	if err != nil {
		return nil, err
	}
	av, err := attributevalue.Marshal(want)
	if err != nil {
		return nil, fmt.Errorf("docstore: marshal filter value: %w", err)
	}
	return s.scan(ctx, &dynamodb.ScanInput{
		TableName:                 s.table(collection),
		FilterExpression:          aws.String("#f = :v"),
		ExpressionAttributeNames:  map[string]string{"#f": field},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": av},
		ConsistentRead:            aws.Bool(true),
	})
}

func (s *DynamoStore) scan(ctx context.Context, in *dynamodb.ScanInput) ([]*Document, error) {
	var docs []*Document
	for {
		out, err := s.client.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("docstore: scan %s: %w", aws.ToString(in.TableName), err)
		}
		for _, item := range out.Items {
			doc, err := decodeItem(item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *DynamoStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id, err := s.opts.newID()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	if err := s.put(ctx, collection, id, data, aws.String("attribute_not_exists(id)")); err != nil {
		return "", err
	}
	return id, nil
}

func (s *DynamoStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return s.put(ctx, collection, id, data, nil)
}

func (s *DynamoStore) put(ctx context.Context, collection, id string, data map[string]any, cond *string) error {
	if err := checkRef(collection, id); err != nil {
		return err
	}
	prepared, err := prepare(data, s.opts.now())
	if err != nil {
		return err
	}
	prepared[FieldID] = id

	item, err := attributevalue.MarshalMap(prepared)
	if err != nil {
		return fmt.Errorf("docstore: marshal %s/%s: %w", collection, id, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           s.table(collection),
		Item:                item,
		ConditionExpression: cond,
	})
	if err != nil {
		return fmt.Errorf("docstore: put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *DynamoStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := checkRef(collection, id); err != nil {
		return err
	}
	prepared, err := prepare(fields, s.opts.now())
	if err != nil {
		return err
	}
	if len(prepared) == 0 {
		_, err := s.Get(ctx, collection, id)
		return err
	}

	keys := make([]string, 0, len(prepared))
	for k := range prepared {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make(map[string]string, len(keys))
	values := make(map[string]types.AttributeValue, len(keys))
	sets := make([]string, 0, len(keys))
	for i, k := range keys {
		n, v := "#n"+strconv.Itoa(i), ":v"+strconv.Itoa(i)
		av, err := attributevalue.Marshal(prepared[k])
		if err != nil {
			return fmt.Errorf("docstore: marshal field %s: %w", k, err)
		}
		names[n] = k
		values[v] = av
		sets = append(sets, n+" = "+v)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 s.table(collection),
		Key:                       idKey(id),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("docstore: merge %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, collection, id string) error {
	if err := checkRef(collection, id); err != nil {
		return err
	}
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: s.table(collection),
		Key:       idKey(id),
	})
	if err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func decodeItem(item map[string]types.AttributeValue) (*Document, error) {
	var raw map[string]any
	if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
		return nil, fmt.Errorf("docstore: decode item: %w", err)
	}
	id, _ := raw[FieldID].(string)
	delete(raw, FieldID)
	data, err := canonicalMap(raw)
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Data: data}, nil
}

// EnsureDynamoTables creates any missing collection table with on-demand
// billing.
func EnsureDynamoTables(ctx context.Context, client dynamoAdmin, tablePrefix string, collections []string) ([]string, error) {
	var created []string
	for _, col := range collections {
		name := tablePrefix + col
		_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
		if err == nil {
			continue
		}
		var notFound *types.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			return created, fmt.Errorf("docstore: describe table %s: %w", name, err)
		}

		_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(name),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(FieldID), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(FieldID), KeyType: types.KeyTypeHash},
			},
			BillingMode: types.BillingModePayPerRequest,
		})
		if err != nil {
			return created, fmt.Errorf("docstore: create table %s: %w", name, err)
		}
		created = append(created, name)
	}
	return created, nil
}
