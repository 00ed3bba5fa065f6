package services

import (
	"context"
	"log"
	"time"

	"sahayak-agent/internal/models"
	"sahayak-agent/internal/repositories"

	"github.com/shopspring/decimal"
)

// Publisher pushes progress events to the device UI.
type Publisher interface {
	Publish(event string, payload interface{})
}

// LedgerOverview bundles the entries with the derived summary the UI
// renders above them.
type LedgerOverview struct {
	Entries []models.KhataEntry `json:"entries"`
	Summary models.KhataSummary `json:"summary"`
}

// LedgerService records daily economic activity and queues each entry
// for upload. Everything here works fully offline; the queue carries
// the entries out when connectivity returns.
type LedgerService struct {
	khata *repositories.KhataRepository
	queue *repositories.QueueRepository
	trust *TrustService

	stats  *repositories.StatsRepository
	events Publisher
}

func NewLedgerService(khata *repositories.KhataRepository, queue *repositories.QueueRepository, trust *TrustService) *LedgerService {
	return &LedgerService{khata: khata, queue: queue, trust: trust}
}

// SetStatsRepository enables enumerator gamification updates.
func (s *LedgerService) SetStatsRepository(r *repositories.StatsRepository) { s.stats = r }

// SetPublisher enables UI progress events.
func (s *LedgerService) SetPublisher(p Publisher) { s.events = p }

// AddEntry appends one ledger entry and queues it for sync.
func (s *LedgerService) AddEntry(ctx context.Context, amount decimal.Decimal, description string) (*models.KhataEntry, error) {
	entry, err := s.khata.Append(ctx, amount, description)
	if err != nil {
		return nil, err
	}

	if _, err := s.queue.Enqueue(ctx, models.QueueKindKhataEntry, entry); err != nil {
		// The entry is on disk either way; the queue item is what
		// carries it out. Surface the failure.
		return nil, err
	}

	if s.stats != nil {
		if _, err := s.stats.RecordActivity(ctx, time.Now()); err != nil {
			log.Printf("[Ledger] Stats update failed: %v", err)
		}
	}
	if s.events != nil {
		s.events.Publish("khata.recorded", entry)
	}
	return entry, nil
}

// Overview returns the entries newest-first with the trust summary.
func (s *LedgerService) Overview(ctx context.Context) (*LedgerOverview, error) {
	entries, err := s.khata.List(ctx)
	if err != nil {
		return nil, err
	}
	return &LedgerOverview{
		Entries: entries,
		Summary: s.trust.Summarize(entries),
	}, nil
}

// Clear wipes the local ledger. Entries already queued or synced are
// unaffected.
func (s *LedgerService) Clear(ctx context.Context) error {
	return s.khata.Clear(ctx)
}
