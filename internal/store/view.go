package store

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/wardrobe"
)

// View is a client-local mirror of a WardrobeStore.
//
// Writes go to the backend first and the mirror changes only after the
// backend acknowledges, so a read after a successful write observes it and a
// failed write leaves the mirror untouched.
type View struct {
	store WardrobeStore

	mu    sync.RWMutex
	items []wardrobe.Item
}

// NewView creates an empty View over s. Call Load or Follow to fill it.
func NewView(s WardrobeStore) *View {
	return &View{store: s}
}

// Store returns the backing store.
func (v *View) Store() WardrobeStore {
	return v.store
}

// Load replaces the mirror with a fresh read of the collection.
func (v *View) Load(ctx context.Context) error {
	items, err := v.store.List(ctx)
	if err != nil {
		return &OpError{Op: "list", Err: err}
	}
	v.replace(items)
	return nil
}

// Items returns a copy of the mirrored collection.
func (v *View) Items() []wardrobe.Item {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]wardrobe.Item, len(v.items))
	copy(out, v.items)
	return out
}

// Len returns the number of mirrored items.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

// Get returns the mirrored item with the given ID.
func (v *View) Get(id string) (wardrobe.Item, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, it := range v.items {
		if it.ID == id {
			return it, true
		}
	}
	return wardrobe.Item{}, false
}

// Add validates fields, stores them, and mirrors the stored item. A snapshot
// delivered by Follow may already hold it, so the mirror upserts by ID.
func (v *View) Add(ctx context.Context, fields schema.NewItem) (wardrobe.Item, error) {
	if err := schema.ValidateNewItem(fields); err != nil {
		return wardrobe.Item{}, err
	}
	item, err := v.store.Add(ctx, fields)
	if err != nil {
		log.Error().Err(err).Msg("Failed to add wardrobe item")
		return wardrobe.Item{}, &OpError{Op: "add", Err: err}
	}

	v.mu.Lock()
	v.upsertLocked(item)
	v.mu.Unlock()
	return item, nil
}

// Update replaces an item's photo, description, and category.
func (v *View) Update(ctx context.Context, item wardrobe.Item) error {
	if err := schema.ValidateNewItem(schema.NewItem{
		PhotoDataURI: item.PhotoDataURI,
		Description:  item.Description,
		Category:     item.Category,
	}); err != nil {
		return err
	}
	if err := v.store.Update(ctx, item); err != nil {
		log.Error().Err(err).Str("itemId", item.ID).Msg("Failed to update wardrobe item")
		return &OpError{Op: "update", ID: item.ID, Err: err}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	// Stored but not mirrored yet when another client added it.
	v.upsertLocked(item)
	return nil
}

// Delete removes an item from the store and then from the mirror.
func (v *View) Delete(ctx context.Context, id string) error {
	if err := v.store.Delete(ctx, id); err != nil {
		log.Error().Err(err).Str("itemId", id).Msg("Failed to delete wardrobe item")
		return &OpError{Op: "delete", ID: id, Err: err}
	}

	v.mu.Lock()
	v.items = slices.DeleteFunc(v.items, func(it wardrobe.Item) bool { return it.ID == id })
	v.mu.Unlock()
	return nil
}

// Follow keeps the mirror in sync with w until ctx is done. It blocks.
func (v *View) Follow(ctx context.Context, w Watcher) error {
	return w.Watch(ctx, v.replace)
}

// upsertLocked replaces the item with the same ID or appends it. v.mu must
// be held.
func (v *View) upsertLocked(item wardrobe.Item) {
	i := slices.IndexFunc(v.items, func(it wardrobe.Item) bool { return it.ID == item.ID })
	if i < 0 {
		v.items = append(v.items, item)
		return
	}
	if item.OwnerID == "" {
		item.OwnerID = v.items[i].OwnerID
	}
	v.items[i] = item
}

func (v *View) replace(items []wardrobe.Item) {
	cp := make([]wardrobe.Item, len(items))
	copy(cp, items)
	v.mu.Lock()
	v.items = cp
	v.mu.Unlock()
}
