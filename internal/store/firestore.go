package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/wardrobe"
)

// FirestoreStore implements WardrobeStore and Watcher on the "wardrobe"
// collection. Firestore assigns document IDs. When ownerID is set, only the
// owner's documents are read.
type FirestoreStore struct {
	client  *firestore.Client
	ownerID string
}

// Compile-time interface checks.
var (
	_ WardrobeStore = (*FirestoreStore)(nil)
	_ Watcher       = (*FirestoreStore)(nil)
)

// NewFirestoreStore initializes a Firebase app for projectID and opens its
// Firestore client. FIRESTORE_EMULATOR_HOST is honored by the client.
func NewFirestoreStore(ctx context.Context, projectID, ownerID string, opts ...option.ClientOption) (*FirestoreStore, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open firestore: %w", err)
	}
	return &FirestoreStore{client: client, ownerID: ownerID}, nil
}

// Close releases the Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) collection() *firestore.CollectionRef {
	return s.client.Collection(CollectionName)
}

func (s *FirestoreStore) query() firestore.Query {
	q := s.collection().Query
	if s.ownerID != "" {
		q = q.Where("ownerId", "==", s.ownerID)
	}
	return q
}

func (s *FirestoreStore) Add(ctx context.Context, fields schema.NewItem) (wardrobe.Item, error) {
	item := itemFromFields("", s.ownerID, fields)
	ref, _, err := s.collection().Add(ctx, item)
	if err != nil {
		return wardrobe.Item{}, fmt.Errorf("firestore add: %w", err)
	}
	item.ID = ref.ID

	log.Debug().Str("itemId", item.ID).Str("category", string(item.Category)).Msg("Item persisted to Firestore")
	return item, nil
}

func (s *FirestoreStore) Update(ctx context.Context, item wardrobe.Item) error {
	// Update, unlike Set, fails when the document does not exist.
	_, err := s.collection().Doc(item.ID).Update(ctx, []firestore.Update{
		{Path: "photoDataUri", Value: item.PhotoDataURI},
		{Path: "description", Value: item.Description},
		{Path: "category", Value: item.Category},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("firestore update %s: %w", item.ID, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	if _, err := s.collection().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) List(ctx context.Context) ([]wardrobe.Item, error) {
	docs, err := s.query().Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore list: %w", err)
	}
	return itemsFromDocs(docs)
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*wardrobe.Item, error) {
	doc, err := s.collection().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("firestore get %s: %w", id, err)
	}
	item, err := itemFromDoc(doc)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Watch streams query snapshots of the collection.
func (s *FirestoreStore) Watch(ctx context.Context, fn func([]wardrobe.Item)) error {
	it := s.query().Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("firestore watch: %w", err)
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return fmt.Errorf("firestore watch snapshot: %w", err)
		}
		items, err := itemsFromDocs(docs)
		if err != nil {
			return err
		}
		log.Debug().Int("items", len(items)).Int("changes", len(snap.Changes)).Msg("Wardrobe snapshot received")
		fn(items)
	}
}

func itemsFromDocs(docs []*firestore.DocumentSnapshot) ([]wardrobe.Item, error) {
	items := make([]wardrobe.Item, 0, len(docs))
	for _, doc := range docs {
		item, err := itemFromDoc(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func itemFromDoc(doc *firestore.DocumentSnapshot) (wardrobe.Item, error) {
	var item wardrobe.Item
	if err := doc.DataTo(&item); err != nil {
		return item, fmt.Errorf("decode document %s: %w", doc.Ref.ID, err)
	}
	item.ID = doc.Ref.ID
	return item, nil
}
