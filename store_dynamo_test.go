package querycache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/goforj/querycache/cachecore"
	"github.com/goforj/querycache/cachetest"
)

// dynStub is an in-memory DynamoAPI. Scan honors the begins_with prefix
// filter, COUNT selects, and pages of pageSize items.
type dynStub struct {
	items    map[string]map[string]types.AttributeValue
	tableOK  bool
	pageSize int

	batchSizes []int
	scanErr    error
}

func newDynStub() *dynStub {
	return &dynStub{items: map[string]map[string]types.AttributeValue{}, pageSize: 10}
}

func (d *dynStub) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	key := in.Key["k"].(*types.AttributeValueMemberS).Value
	item, ok := d.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (d *dynStub) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key := in.Item["k"].(*types.AttributeValueMemberS).Value
	d.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (d *dynStub) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	key := in.Key["k"].(*types.AttributeValueMemberS).Value
	delete(d.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (d *dynStub) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	for _, writes := range in.RequestItems {
		if len(writes) > dynamoBatchWriteLimit {
			return nil, fmt.Errorf("batch of %d exceeds limit", len(writes))
		}
		d.batchSizes = append(d.batchSizes, len(writes))
		for _, wr := range writes {
			if dr := wr.DeleteRequest; dr != nil {
				key := dr.Key["k"].(*types.AttributeValueMemberS).Value
				delete(d.items, key)
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (d *dynStub) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if d.scanErr != nil {
		return nil, d.scanErr
	}
	prefix := ""
	if p, ok := in.ExpressionAttributeValues[":p"].(*types.AttributeValueMemberS); ok {
		prefix = p.Value
	}
	var keys []string
	for k := range d.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		last := in.ExclusiveStartKey["k"].(*types.AttributeValueMemberS).Value
		start = sort.Search(len(keys), func(i int) bool { return keys[i] > last })
	}
	end := min(start+d.pageSize, len(keys))

	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		out.Count++
		if in.Select != types.SelectCount {
			out.Items = append(out.Items, map[string]types.AttributeValue{
				"k": &types.AttributeValueMemberS{Value: k},
			})
		}
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"k": &types.AttributeValueMemberS{Value: keys[end-1]},
		}
	}
	return out, nil
}

func (d *dynStub) CreateTable(context.Context, *dynamodb.CreateTableInput, ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	d.tableOK = true
	return &dynamodb.CreateTableOutput{}, nil
}

func (d *dynStub) DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if !d.tableOK {
		return nil, &types.ResourceNotFoundException{}
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

func newStubDynamoStore(t *testing.T, stub *dynStub, prefix string) *dynamoStore {
	t.Helper()
	store, err := newDynamoStore(context.Background(), StoreConfig{
		BaseConfig:   cachecore.BaseConfig{Prefix: prefix},
		DynamoClient: stub,
		DynamoTable:  "tbl",
	})
	if err != nil {
		t.Fatalf("store create failed: %v", err)
	}
	return store.(*dynamoStore)
}

func TestDynamoStoreContract(t *testing.T) {
	cachetest.RunStoreContract(t, newStubDynamoStore(t, newDynStub(), "p"), cachetest.Options{})
}

func TestDynamoStoreCreatesMissingTable(t *testing.T) {
	stub := newDynStub()
	store := newStubDynamoStore(t, stub, "p")
	if !stub.tableOK {
		t.Fatalf("expected table to be created")
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestDynamoStoreFlushBatchesAndRespectsPrefix(t *testing.T) {
	ctx := context.Background()
	stub := newDynStub()
	store := newStubDynamoStore(t, stub, "p")

	for i := 0; i < 60; i++ {
		if err := store.Set(ctx, fmt.Sprintf("k%02d", i), []byte("v")); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}
	stub.items["other:keep"] = map[string]types.AttributeValue{
		"k": &types.AttributeValueMemberS{Value: "other:keep"},
		"v": &types.AttributeValueMemberB{Value: []byte("x")},
	}

	if n, err := store.Len(ctx); err != nil || n != 60 {
		t.Fatalf("expected len=60, got %d err=%v", n, err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if n, err := store.Len(ctx); err != nil || n != 0 {
		t.Fatalf("expected len=0 after flush, got %d err=%v", n, err)
	}
	if _, ok := stub.items["other:keep"]; !ok {
		t.Fatalf("expected other prefix item retained")
	}
	for _, size := range stub.batchSizes {
		if size > dynamoBatchWriteLimit {
			t.Fatalf("batch of %d exceeds limit", size)
		}
	}
}

func TestDynamoStoreGetRejectsNonBinaryValue(t *testing.T) {
	stub := newDynStub()
	store := newStubDynamoStore(t, stub, "p")
	stub.items["p:bad"] = map[string]types.AttributeValue{
		"k": &types.AttributeValueMemberS{Value: "p:bad"},
		"v": &types.AttributeValueMemberS{Value: "text"},
	}
	if _, _, err := store.Get(context.Background(), "bad"); err == nil {
		t.Fatalf("expected error for non-binary value")
	}
}

func TestDynamoStoreScanErrorPropagates(t *testing.T) {
	stub := newDynStub()
	store := newStubDynamoStore(t, stub, "p")
	stub.scanErr = errors.New("scan")
	if err := store.Flush(context.Background()); err == nil {
		t.Fatalf("expected flush error")
	}
	if _, err := store.Len(context.Background()); err == nil {
		t.Fatalf("expected len error")
	}
}

func TestIsDynamoStartupRetryable(t *testing.T) {
	if isDynamoStartupRetryable(nil) {
		t.Fatalf("nil error is not retryable")
	}
	if !isDynamoStartupRetryable(errors.New("dial tcp: connection refused")) {
		t.Fatalf("expected connection refused to be retryable")
	}
	if isDynamoStartupRetryable(errors.New("access denied")) {
		t.Fatalf("expected access denied to be terminal")
	}
}

type failingDynamo struct{ dynStub }

func (failingDynamo) DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return nil, errors.New("boom")
}

func TestNewDynamoStoreFailsOnTerminalDescribeError(t *testing.T) {
	_, err := newDynamoStore(context.Background(), StoreConfig{DynamoClient: &failingDynamo{}, DynamoTable: "tbl"})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected describe error, got %v", err)
	}
}
