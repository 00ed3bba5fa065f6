package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sahayak-agent/internal/models"
	"sahayak-agent/internal/store"
)

// QueueRepository is the offline sync queue: the single source of truth
// for what still needs to reach the server. Pending counts are always
// derived by filtering, never kept as a separate counter.
type QueueRepository struct {
	Store *store.Store
}

func NewQueueRepository(s *store.Store) *QueueRepository {
	return &QueueRepository{Store: s}
}

// Enqueue wraps a record into a pending queue item. The payload is
// opaque to the queue; kind routes it server-side and attachments are
// local file paths uploaded alongside the record.
func (r *QueueRepository) Enqueue(ctx context.Context, kind string, payload interface{}, attachments ...string) (*models.SyncQueueItem, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal payload: %w", err)
	}

	item := models.SyncQueueItem{
		ID:          newRecordID(),
		Kind:        kind,
		Payload:     raw,
		Attachments: attachments,
		SyncStatus:  models.SyncPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.Store.Append(models.CollectionSyncQueue, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns every queue item in append order.
func (r *QueueRepository) List(ctx context.Context) ([]models.SyncQueueItem, error) {
	var items []models.SyncQueueItem
	if err := r.Store.List(models.CollectionSyncQueue, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListPending returns only items that still need to be uploaded.
func (r *QueueRepository) ListPending(ctx context.Context) ([]models.SyncQueueItem, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := items[:0:0]
	for _, item := range items {
		if item.SyncStatus == models.SyncPending {
			pending = append(pending, item)
		}
	}
	return pending, nil
}

// PendingCount is the UI-visible "N pending uploads" figure.
func (r *QueueRepository) PendingCount(ctx context.Context) (int, error) {
	pending, err := r.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// MarkSynced flips an item from pending to synced. Idempotent: marking
// an already-synced or unknown id is a no-op, and a synced item never
// regresses back to pending. The read-modify-write runs inside the
// store lock so an enqueue racing a sync pass is never erased.
func (r *QueueRepository) MarkSynced(ctx context.Context, id string) error {
	return r.Store.Update(models.CollectionSyncQueue, func(raws []json.RawMessage) ([]json.RawMessage, error) {
		for i, raw := range raws {
			var item models.SyncQueueItem
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, fmt.Errorf("queue: corrupt item: %w", err)
			}
			if item.ID != id || item.SyncStatus != models.SyncPending {
				continue
			}
			item.SyncStatus = models.SyncSynced
			encoded, err := json.Marshal(item)
			if err != nil {
				return nil, fmt.Errorf("queue: marshal item: %w", err)
			}
			raws[i] = encoded
			return raws, nil
		}
		return nil, nil
	})
}
