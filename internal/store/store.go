// Package store persists the wardrobe collection.
//
// Three backends implement WardrobeStore: MemoryStore (process-local),
// DynamoStore (single-table DynamoDB with photos offloaded to S3), and
// FirestoreStore (the "wardrobe" collection, with live snapshots). View
// mirrors a backend for callers that render the collection.
package store

import (
	"context"
	"errors"

	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/wardrobe"
)

// CollectionName is the document collection (and DynamoDB entity) name.
const CollectionName = "wardrobe"

// ErrNotFound is returned by Update when the item ID is unknown.
var ErrNotFound = errors.New("wardrobe item not found")

// WardrobeStore defines the persistence interface for wardrobe items.
// Each method is safe for concurrent use.
type WardrobeStore interface {
	// Add stores a new item. The store assigns and returns the ID.
	Add(ctx context.Context, fields schema.NewItem) (wardrobe.Item, error)

	// Update replaces the mutable fields of an existing item.
	// Returns ErrNotFound if item.ID is unknown.
	Update(ctx context.Context, item wardrobe.Item) error

	// Delete removes an item. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the full collection.
	List(ctx context.Context) ([]wardrobe.Item, error)

	// Get retrieves a single item. Returns nil, nil if not found.
	Get(ctx context.Context, id string) (*wardrobe.Item, error)
}

// Watcher is implemented by backends that push collection changes.
type Watcher interface {
	// Watch calls fn with the full collection on every change until ctx is
	// done or the subscription fails. It returns ctx.Err() on cancellation.
	Watch(ctx context.Context, fn func([]wardrobe.Item)) error
}

// OpError reports a failed store operation. The view is unchanged when one
// is returned.
type OpError struct {
	Op  string // "add", "update", "delete", "list"
	ID  string
	Err error
}

func (e *OpError) Error() string {
	msg := "wardrobe " + e.Op
	if e.ID != "" {
		msg += " " + e.ID
	}
	return msg + " failed: " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func itemFromFields(id, ownerID string, fields schema.NewItem) wardrobe.Item {
	return wardrobe.Item{
		ID:           id,
		OwnerID:      ownerID,
		PhotoDataURI: fields.PhotoDataURI,
		Description:  fields.Description,
		Category:     fields.Category,
	}
}
