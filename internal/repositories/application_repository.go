package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"sahayak-agent/internal/identity"
	"sahayak-agent/internal/models"
	"sahayak-agent/internal/store"
)

// ErrDuplicateIdentity means an application already exists for the same
// identity number on this device.
var ErrDuplicateIdentity = errors.New("applications: identity number already registered")

// ErrApplicationNotFound is returned by status updates for unknown ids.
var ErrApplicationNotFound = errors.New("applications: not found")

// identityIndexEntry keeps the full identity number locally for the
// duplicate-registration check. Never rendered to the UI.
type identityIndexEntry struct {
	IdentityNumber string    `json:"identity_number"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// ApplicationRepository stores beneficiary applications. Applications
// are created once by the beneficiary flow and mutated only by the
// external reviewer action that flips their status.
type ApplicationRepository struct {
	Store *store.Store
}

func NewApplicationRepository(s *store.Store) *ApplicationRepository {
	return &ApplicationRepository{Store: s}
}

// Create validates and persists a new application, and records the full
// identity number in the local dedupe index.
func (r *ApplicationRepository) Create(ctx context.Context, app models.BeneficiaryApplication) (*models.BeneficiaryApplication, error) {
	number := identity.Normalize(app.IdentityNumber)
	if !identity.IsValid(number) {
		return nil, fmt.Errorf("applications: invalid identity number")
	}

	registered, err := r.isRegistered(number)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, ErrDuplicateIdentity
	}

	app.ID = newRecordID()
	app.IdentityNumber = number
	app.Status = models.ApplicationPendingVerification
	app.SubmittedAt = time.Now().UTC()

	if err := r.Store.Append(models.CollectionApplications, app); err != nil {
		return nil, err
	}

	// Index write is best-effort: the application itself is already
	// durable, and a missing index entry only weakens local dedupe.
	index := identityIndexEntry{IdentityNumber: number, RecordedAt: app.SubmittedAt}
	if err := r.Store.Append(models.CollectionIdentityIndex, index); err != nil {
		log.Printf("[Applications] Dedupe index write failed for %s: %v", app.ID, err)
	}
	return &app, nil
}

// List returns all applications in submission order.
func (r *ApplicationRepository) List(ctx context.Context) ([]models.BeneficiaryApplication, error) {
	var apps []models.BeneficiaryApplication
	if err := r.Store.List(models.CollectionApplications, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateStatus applies the external reviewer decision. It is the only
// mutation an application ever sees after submission. The
// read-modify-write runs inside the store lock so a submission racing
// the status flip is never erased.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.BeneficiaryApplication, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("applications: unknown status %q", status)
	}

	var updated *models.BeneficiaryApplication
	err := r.Store.Update(models.CollectionApplications, func(raws []json.RawMessage) ([]json.RawMessage, error) {
		for i, raw := range raws {
			var app models.BeneficiaryApplication
			if err := json.Unmarshal(raw, &app); err != nil {
				return nil, fmt.Errorf("applications: corrupt record: %w", err)
			}
			if app.ID != id {
				continue
			}
			app.Status = status
			encoded, err := json.Marshal(app)
			if err != nil {
				return nil, fmt.Errorf("applications: marshal record: %w", err)
			}
			raws[i] = encoded
			updated = &app
			return raws, nil
		}
		return nil, ErrApplicationNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ApplicationRepository) isRegistered(number string) (bool, error) {
	var index []identityIndexEntry
	if err := r.Store.List(models.CollectionIdentityIndex, &index); err != nil {
		return false, err
	}
	for _, e := range index {
		if e.IdentityNumber == number {
			return true, nil
		}
	}
	return false, nil
}
