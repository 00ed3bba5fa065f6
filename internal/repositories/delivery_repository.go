package repositories

import (
	"context"

	"sahayak-agent/internal/models"
	"sahayak-agent/internal/store"
)

// DeliveryRepository stores confirmed delivery records. Records land
// here only via the verification state machine and are immutable.
type DeliveryRepository struct {
	Store *store.Store
}

func NewDeliveryRepository(s *store.Store) *DeliveryRepository {
	return &DeliveryRepository{Store: s}
}

func (r *DeliveryRepository) Append(ctx context.Context, rec models.DeliveryRecord) error {
	return r.Store.Append(models.CollectionDeliveries, rec)
}

func (r *DeliveryRepository) List(ctx context.Context) ([]models.DeliveryRecord, error) {
	var records []models.DeliveryRecord
	if err := r.Store.List(models.CollectionDeliveries, &records); err != nil {
		return nil, err
	}
	return records, nil
}
