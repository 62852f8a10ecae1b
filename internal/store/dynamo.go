package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fpang/styleai/internal/s3util"
	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/wardrobe"
)

// DynamoDB key constants for the single-table design.
const (
	pkPrefix = "WARDROBE#"
	skItem   = "ITEM#"

	// photoFetchConcurrency bounds parallel S3 reads during List.
	photoFetchConcurrency = 8
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// dynamoItem is the DynamoDB record of an item. When photos are offloaded
// PhotoKey is set and PhotoDataURI is empty.
type dynamoItem struct {
	ID           string            `dynamodbav:"id"`
	OwnerID      string            `dynamodbav:"ownerId"`
	PhotoKey     string            `dynamodbav:"photoKey,omitempty"`
	PhotoDataURI string            `dynamodbav:"photoDataUri,omitempty"`
	Description  string            `dynamodbav:"description"`
	Category     wardrobe.Category `dynamodbav:"category"`
}

// DynamoStore implements WardrobeStore using AWS DynamoDB. All items of an
// owner share the partition key WARDROBE#<owner>; the sort key is ITEM#<id>.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	ownerID   string
	photos    *s3util.PhotoBucket
}

// Compile-time interface check.
var _ WardrobeStore = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table and owner.
// photos may be nil, in which case photos are stored inline; DynamoDB's
// 400 KB item limit then applies to them.
func NewDynamoStore(client DynamoAPI, tableName, ownerID string, photos *s3util.PhotoBucket) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		ownerID:   ownerID,
		photos:    photos,
	}
}

// --- Internal helpers ---

func (s *DynamoStore) pk() string {
	return pkPrefix + s.ownerID
}

func itemKey(pk, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: skItem + id},
	}
}

// putItem marshals rec and writes it with PK and SK. condition, if set,
// is a ConditionExpression on the existing item.
func (s *DynamoStore) putItem(ctx context.Context, rec dynamoItem, condition string) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	for k, v := range itemKey(s.pk(), rec.ID) {
		item[k] = v
	}

	input := &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}
	if condition != "" {
		input.ConditionExpression = aws.String(condition)
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("PutItem PK=%s SK=%s%s: %w", s.pk(), skItem, rec.ID, err)
	}
	return nil
}

// getItem reads one record. Returns false if it does not exist.
func (s *DynamoStore) getItem(ctx context.Context, id string) (dynamoItem, bool, error) {
	var rec dynamoItem
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key:       itemKey(s.pk(), id),
	})
	if err != nil {
		return rec, false, fmt.Errorf("GetItem PK=%s SK=%s%s: %w", s.pk(), skItem, id, err)
	}
	if result.Item == nil {
		return rec, false, nil
	}
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return rec, false, fmt.Errorf("unmarshal %s: %w", id, err)
	}
	return rec, true, nil
}

// record converts an item to its DynamoDB form, uploading the photo to a
// fresh S3 key when a bucket is configured. The caller owns that key until
// the record is written and must discard it if the write fails.
func (s *DynamoStore) record(ctx context.Context, item wardrobe.Item) (dynamoItem, error) {
	rec := dynamoItem{
		ID:          item.ID,
		OwnerID:     s.ownerID,
		Description: item.Description,
		Category:    item.Category,
	}
	if s.photos == nil || item.PhotoDataURI == "" {
		rec.PhotoDataURI = item.PhotoDataURI
		return rec, nil
	}
	key := s3util.PhotoKey(s.ownerID, item.ID, uuid.NewString())
	if err := s.photos.Put(ctx, key, item.PhotoDataURI); err != nil {
		return rec, err
	}
	rec.PhotoKey = key
	return rec, nil
}

// discardPhoto removes a photo no record points at. Cleanup is best effort.
func (s *DynamoStore) discardPhoto(ctx context.Context, key, itemID string) {
	if key == "" || s.photos == nil {
		return
	}
	if err := s.photos.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Str("itemId", itemID).Msg("Failed to delete unreferenced photo")
	}
}

// item converts a record back, downloading the photo if it was offloaded.
func (s *DynamoStore) item(ctx context.Context, rec dynamoItem) (wardrobe.Item, error) {
	it := wardrobe.Item{
		ID:           rec.ID,
		OwnerID:      rec.OwnerID,
		PhotoDataURI: rec.PhotoDataURI,
		Description:  rec.Description,
		Category:     rec.Category,
	}
	if rec.PhotoKey != "" && s.photos != nil {
		uri, err := s.photos.Get(ctx, rec.PhotoKey)
		if err != nil {
			return it, err
		}
		it.PhotoDataURI = uri
	}
	return it, nil
}

// --- WardrobeStore ---

func (s *DynamoStore) Add(ctx context.Context, fields schema.NewItem) (wardrobe.Item, error) {
	item := itemFromFields(uuid.NewString(), s.ownerID, fields)
	rec, err := s.record(ctx, item)
	if err != nil {
		return wardrobe.Item{}, fmt.Errorf("add item %s: %w", item.ID, err)
	}
	if err := s.putItem(ctx, rec, "attribute_not_exists(PK)"); err != nil {
		s.discardPhoto(ctx, rec.PhotoKey, item.ID)
		return wardrobe.Item{}, fmt.Errorf("add item %s: %w", item.ID, err)
	}

	log.Debug().Str("itemId", item.ID).Str("category", string(item.Category)).Msg("Item persisted to DynamoDB")
	return item, nil
}

func (s *DynamoStore) Update(ctx context.Context, item wardrobe.Item) error {
	old, found, err := s.getItem(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("update item %s: %w", item.ID, err)
	}
	if !found {
		return ErrNotFound
	}

	// The new photo goes to its own key; the old one is removed only once
	// the record points away from it.
	rec, err := s.record(ctx, item)
	if err != nil {
		return fmt.Errorf("update item %s: %w", item.ID, err)
	}
	if err := s.putItem(ctx, rec, "attribute_exists(PK)"); err != nil {
		s.discardPhoto(ctx, rec.PhotoKey, item.ID)
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update item %s: %w", item.ID, err)
	}

	if old.PhotoKey != rec.PhotoKey {
		s.discardPhoto(ctx, old.PhotoKey, item.ID)
	}

	log.Debug().Str("itemId", item.ID).Msg("Item updated in DynamoDB")
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, id string) error {
	result, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    &s.tableName,
		Key:          itemKey(s.pk(), id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return fmt.Errorf("DeleteItem PK=%s SK=%s%s: %w", s.pk(), skItem, id, err)
	}

	var old dynamoItem
	if len(result.Attributes) > 0 {
		if err := attributevalue.UnmarshalMap(result.Attributes, &old); err != nil {
			log.Warn().Err(err).Str("itemId", id).Msg("Failed to decode deleted item")
		}
	}
	s.discardPhoto(ctx, old.PhotoKey, id)

	log.Debug().Str("itemId", id).Msg("Item deleted from DynamoDB")
	return nil
}

func (s *DynamoStore) List(ctx context.Context) ([]wardrobe.Item, error) {
	pk := s.pk()
	input := &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :skPrefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":       &types.AttributeValueMemberS{Value: pk},
			":skPrefix": &types.AttributeValueMemberS{Value: skItem},
		},
	}

	var records []dynamoItem
	// Handle pagination; DynamoDB returns up to 1MB per Query call.
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("Query PK=%s SK prefix=%s: %w", pk, skItem, err)
		}
		var page []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal query page: %w", err)
		}
		records = append(records, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	items := make([]wardrobe.Item, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(photoFetchConcurrency)
	for i, rec := range records {
		g.Go(func() error {
			it, err := s.item(gctx, rec)
			if err != nil {
				return fmt.Errorf("load item %s: %w", rec.ID, err)
			}
			items[i] = it
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *DynamoStore) Get(ctx context.Context, id string) (*wardrobe.Item, error) {
	rec, found, err := s.getItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	if rec.ID == "" {
		rec.ID = id
	}
	it, err := s.item(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return &it, nil
}
