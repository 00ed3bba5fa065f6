package models

// Collection names used as namespaced keys in the local record store.
// One logical collection per key, serialized as a plain JSON array.
const (
	CollectionKhataEntries  = "khata_entries"
	CollectionApplications  = "pending_applications"
	CollectionDeliveries    = "deliveries"
	CollectionSyncQueue     = "sync_queue"
	CollectionIdentityIndex = "registered_identities"
	CollectionStats         = "enumerator_stats"
)
