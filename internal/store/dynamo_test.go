package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/styleai/internal/s3util"
	"github.com/fpang/styleai/internal/wardrobe"
)

// memDynamo is an in-memory DynamoAPI supporting the calls DynamoStore makes.
type memDynamo struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue // "PK|SK" -> item
	pageSize int
	queries  int

	// failPut, when set, can reject a PutItem before it is applied.
	failPut func(*dynamodb.PutItemInput) error
}

func newMemDynamo() *memDynamo {
	return &memDynamo{items: make(map[string]map[string]types.AttributeValue), pageSize: 2}
}

func strAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func keyOf(item map[string]types.AttributeValue) string {
	return strAttr(item, "PK") + "|" + strAttr(item, "SK")
}

func (m *memDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		if err := m.failPut(in); err != nil {
			return nil, err
		}
	}
	k := keyOf(in.Item)
	_, exists := m.items[k]
	if in.ConditionExpression != nil {
		switch *in.ConditionExpression {
		case "attribute_exists(PK)":
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case "attribute_not_exists(PK)":
			if exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	m.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *memDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: m.items[keyOf(in.Key)]}, nil
}

func (m *memDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyOf(in.Key)
	old := m.items[k]
	delete(m.items, k)
	return &dynamodb.DeleteItemOutput{Attributes: old}, nil
}

func (m *memDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	pk := strAttr(in.ExpressionAttributeValues, ":pk")
	prefix := strAttr(in.ExpressionAttributeValues, ":skPrefix")
	after := ""
	if in.ExclusiveStartKey != nil {
		after = strAttr(in.ExclusiveStartKey, "SK")
	}

	var sks []string
	for _, item := range m.items {
		sk := strAttr(item, "SK")
		if strAttr(item, "PK") == pk && strings.HasPrefix(sk, prefix) && sk > after {
			sks = append(sks, sk)
		}
	}
	sort.Strings(sks)

	out := &dynamodb.QueryOutput{}
	for i, sk := range sks {
		if i == m.pageSize {
			last := m.items[pk+"|"+sks[i-1]]
			out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": last["PK"], "SK": last["SK"]}
			break
		}
		out.Items = append(out.Items, m.items[pk+"|"+sk])
	}
	return out, nil
}

// memPhotos is an in-memory s3util.ObjectAPI.
type memPhotos struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemPhotos() *memPhotos {
	return &memPhotos{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *memPhotos) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Key] = data
	m.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (m *memPhotos) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	ct := m.types[*in.Key]
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data)), ContentType: &ct}, nil
}

func (m *memPhotos) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestDynamoStore_OffloadsPhotosToS3(t *testing.T) {
	ctx := context.Background()
	db := newMemDynamo()
	photos := newMemPhotos()
	s := NewDynamoStore(db, "wardrobe", "alice", s3util.NewPhotoBucket(photos, "bucket"))

	fields := newFields(t, "Black blazer", wardrobe.CategoryOuterwear)
	item, err := s.Add(ctx, fields)
	require.NoError(t, err)

	raw := db.items["WARDROBE#alice|ITEM#"+item.ID]
	require.NotNil(t, raw)
	key := strAttr(raw, "photoKey")
	assert.True(t, strings.HasPrefix(key, "photos/alice/"+item.ID+"/"), key)
	assert.Empty(t, strAttr(raw, "photoDataUri"), "photo bytes stay out of DynamoDB")
	assert.Contains(t, photos.objects, key)

	got, err := s.Get(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fields.PhotoDataURI, got.PhotoDataURI)
	assert.Equal(t, "Black blazer", got.Description)

	require.NoError(t, s.Delete(ctx, item.ID))
	assert.Empty(t, photos.objects)
	got, err = s.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDynamoStore_InlinePhotosWithoutBucket(t *testing.T) {
	ctx := context.Background()
	db := newMemDynamo()
	s := NewDynamoStore(db, "wardrobe", "bob", nil)

	fields := newFields(t, "Canvas tote", wardrobe.CategoryAccessory)
	item, err := s.Add(ctx, fields)
	require.NoError(t, err)
	assert.Equal(t, fields.PhotoDataURI, strAttr(db.items["WARDROBE#bob|ITEM#"+item.ID], "photoDataUri"))
}

func TestDynamoStore_UpdateMissingIsNotFound(t *testing.T) {
	s := NewDynamoStore(newMemDynamo(), "wardrobe", "alice", nil)
	err := s.Update(context.Background(), wardrobe.Item{ID: "ghost", Description: "x", Category: wardrobe.CategoryTop})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoStore_UpdateAndPaginatedList(t *testing.T) {
	ctx := context.Background()
	db := newMemDynamo()
	photos := newMemPhotos()
	s := NewDynamoStore(db, "wardrobe", "alice", s3util.NewPhotoBucket(photos, "bucket"))

	var ids []string
	for _, d := range []string{"Tee", "Jeans", "Loafers", "Cap", "Gown"} {
		it, err := s.Add(ctx, newFields(t, d, wardrobe.CategoryTop))
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}
	// Another owner's items stay out of the listing.
	_, err := NewDynamoStore(db, "wardrobe", "bob", nil).Add(ctx, newFields(t, "Bob's hat", wardrobe.CategoryAccessory))
	require.NoError(t, err)

	first, err := s.Get(ctx, ids[0])
	require.NoError(t, err)
	first.Description = "Striped tee"
	require.NoError(t, s.Update(ctx, *first))

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Equal(t, 3, db.queries, "five items at two per page")

	byID := make(map[string]wardrobe.Item)
	for _, it := range items {
		byID[it.ID] = it
		assert.NotEmpty(t, it.PhotoDataURI)
		assert.Equal(t, "alice", it.OwnerID)
	}
	assert.Equal(t, "Striped tee", byID[ids[0]].Description)
}

func TestDynamoStore_FailedUpdateKeepsOriginalPhoto(t *testing.T) {
	ctx := context.Background()
	db := newMemDynamo()
	photos := newMemPhotos()
	s := NewDynamoStore(db, "wardrobe", "alice", s3util.NewPhotoBucket(photos, "bucket"))

	original := newFields(t, "Silk scarf", wardrobe.CategoryAccessory)
	item, err := s.Add(ctx, original)
	require.NoError(t, err)
	originalKey := strAttr(db.items["WARDROBE#alice|ITEM#"+item.ID], "photoKey")

	db.failPut = func(in *dynamodb.PutItemInput) error {
		if in.ConditionExpression != nil && *in.ConditionExpression == "attribute_exists(PK)" {
			return errors.New("throttled")
		}
		return nil
	}
	item.PhotoDataURI = "data:image/jpeg;base64,/9j/4AAQSkZJRg=="
	item.Description = "Wool scarf"
	err = s.Update(ctx, item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")

	got, err := s.Get(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, original.PhotoDataURI, got.PhotoDataURI)
	assert.Equal(t, "Silk scarf", got.Description)
	assert.Equal(t, []string{originalKey}, slices.Collect(maps.Keys(photos.objects)), "the new upload is discarded")
}

func TestDynamoStore_UpdateReplacesPhotoKey(t *testing.T) {
	ctx := context.Background()
	db := newMemDynamo()
	photos := newMemPhotos()
	s := NewDynamoStore(db, "wardrobe", "alice", s3util.NewPhotoBucket(photos, "bucket"))

	item, err := s.Add(ctx, newFields(t, "Denim jacket", wardrobe.CategoryOuterwear))
	require.NoError(t, err)
	oldKey := strAttr(db.items["WARDROBE#alice|ITEM#"+item.ID], "photoKey")

	item.PhotoDataURI = "data:image/jpeg;base64,/9j/4AAQSkZJRg=="
	require.NoError(t, s.Update(ctx, item))

	newKey := strAttr(db.items["WARDROBE#alice|ITEM#"+item.ID], "photoKey")
	assert.NotEqual(t, oldKey, newKey)
	assert.Equal(t, []string{newKey}, slices.Collect(maps.Keys(photos.objects)))
	assert.Equal(t, "image/jpeg", photos.types[newKey])
}

func TestDynamoStore_FailedAddLeavesNoPhoto(t *testing.T) {
	db := newMemDynamo()
	db.failPut = func(*dynamodb.PutItemInput) error { return errors.New("throttled") }
	photos := newMemPhotos()
	s := NewDynamoStore(db, "wardrobe", "alice", s3util.NewPhotoBucket(photos, "bucket"))

	_, err := s.Add(context.Background(), newFields(t, "Ankle boots", wardrobe.CategoryFootwear))
	require.Error(t, err)
	assert.Empty(t, photos.objects)
	assert.Empty(t, db.items)
}
