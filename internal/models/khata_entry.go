package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultKhataDescription is used when an entry is saved without a description.
const DefaultKhataDescription = "Daily Sale"

// KhataEntry is a single logged sale or income line in a beneficiary's
// digital khata. Entries are append-only and immutable once created; the
// only way to remove them is the explicit bulk clear of the whole ledger.
type KhataEntry struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// KhataSummary is the derived view shown on the khata screen. It is
// recomputed from the entries on every read, never cached.
type KhataSummary struct {
	TotalEarnings decimal.Decimal `json:"total_earnings"`
	EntryCount    int             `json:"entry_count"`
	TrustScore    int             `json:"trust_score"`
}
