package services

import (
	"context"
	"log"
	"time"

	"sahayak-agent/internal/identity"
	"sahayak-agent/internal/models"
	"sahayak-agent/internal/repositories"
)

// RegistrationService files beneficiary applications locally and queues
// them for upload. Duplicate identities are rejected before anything is
// queued.
type RegistrationService struct {
	apps  *repositories.ApplicationRepository
	queue *repositories.QueueRepository

	stats  *repositories.StatsRepository
	events Publisher
}

func NewRegistrationService(apps *repositories.ApplicationRepository, queue *repositories.QueueRepository) *RegistrationService {
	return &RegistrationService{apps: apps, queue: queue}
}

// SetStatsRepository enables enumerator gamification updates.
func (s *RegistrationService) SetStatsRepository(r *repositories.StatsRepository) { s.stats = r }

// SetPublisher enables UI progress events.
func (s *RegistrationService) SetPublisher(p Publisher) { s.events = p }

// Register files a new application. The evidence photo, if captured,
// rides along as a queue attachment so it reaches object storage ahead
// of the record.
func (s *RegistrationService) Register(ctx context.Context, app models.BeneficiaryApplication) (*models.BeneficiaryApplication, error) {
	created, err := s.apps.Create(ctx, app)
	if err != nil {
		return nil, err
	}

	var attachments []string
	if created.EvidencePath != "" {
		attachments = append(attachments, created.EvidencePath)
	}
	if _, err := s.queue.Enqueue(ctx, models.QueueKindApplication, created, attachments...); err != nil {
		return nil, err
	}

	if s.stats != nil {
		if _, err := s.stats.RecordActivity(ctx, time.Now()); err != nil {
			log.Printf("[Registration] Stats update failed: %v", err)
		}
	}
	if s.events != nil {
		s.events.Publish("application.filed", created.ID)
	}

	// The queue item keeps the full number; the response going back to
	// the UI does not need it.
	masked := *created
	masked.IdentityNumber = identity.Mask(masked.IdentityNumber)
	return &masked, nil
}

// List returns every locally filed application with the identity
// number masked. The full number stays on disk for deduplication; the
// UI never needs more than the last four digits.
func (s *RegistrationService) List(ctx context.Context) ([]models.BeneficiaryApplication, error) {
	apps, err := s.apps.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		apps[i].IdentityNumber = identity.Mask(apps[i].IdentityNumber)
	}
	return apps, nil
}

// UpdateStatus applies a reviewed status pushed down from the backend.
func (s *RegistrationService) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.BeneficiaryApplication, error) {
	return s.apps.UpdateStatus(ctx, id, status)
}
