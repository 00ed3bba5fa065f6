package models

import (
	"encoding/json"
	"time"
)

// SyncStatus marks where a queued record stands relative to the remote
// system of record. A synced item never regresses to pending.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
)

// Record kinds carried on the sync queue. The queue itself treats the
// payload as opaque; the kind routes the record server-side.
const (
	QueueKindApplication = "application"
	QueueKindDelivery    = "delivery"
	QueueKindKhataEntry  = "khata_entry"
)

// SyncQueueItem wraps any record that crosses the offline/online
// boundary. The ID is client-generated and the remote upload endpoint is
// idempotent on it, so a retried upload after a dropped response cannot
// duplicate the record server-side.
type SyncQueueItem struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Attachments []string        `json:"attachments,omitempty"`
	SyncStatus  SyncStatus      `json:"sync_status"`
	CreatedAt   time.Time       `json:"created_at"`
}
