package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sahayak-agent/internal/models"
	"sahayak-agent/internal/store"

	"github.com/shopspring/decimal"
)

// KhataRepository owns the beneficiary's append-only ledger. Entries are
// immutable once created; the only destructive operation is the explicit
// bulk clear.
type KhataRepository struct {
	Store *store.Store
}

func NewKhataRepository(s *store.Store) *KhataRepository {
	return &KhataRepository{Store: s}
}

// Append records a new ledger entry. A non-positive amount is rejected;
// an empty description gets the generic label.
func (r *KhataRepository) Append(ctx context.Context, amount decimal.Decimal, description string) (*models.KhataEntry, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("khata: amount must be positive, got %s", amount)
	}
	if description == "" {
		description = models.DefaultKhataDescription
	}

	entry := models.KhataEntry{
		ID:          newRecordID(),
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.Store.Append(models.CollectionKhataEntries, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns all entries newest first, the display order of the khata
// screen.
func (r *KhataRepository) List(ctx context.Context) ([]models.KhataEntry, error) {
	var entries []models.KhataEntry
	if err := r.Store.List(models.CollectionKhataEntries, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Clear wipes the whole ledger. Used only by the explicit reset action.
func (r *KhataRepository) Clear(ctx context.Context) error {
	return r.Store.Clear(models.CollectionKhataEntries)
}
