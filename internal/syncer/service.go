package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"sahayak-agent/internal/metrics"
	"sahayak-agent/internal/models"
	"sahayak-agent/internal/repositories"
)

// ErrOffline reports that the connectivity probe failed at the start of
// a reconciliation pass. Nothing was attempted.
var ErrOffline = errors.New("syncer: device is offline")

// Publisher pushes sync progress events to the device UI.
type Publisher interface {
	Publish(event string, payload interface{})
}

// Summary is the outcome of one reconciliation pass.
type Summary struct {
	Uploaded int `json:"uploaded"`
	Failed   int `json:"failed"`
}

// Service drains the pending sync queue when connectivity allows. One
// pass runs at a time; each item fails or succeeds independently so a
// single bad record cannot wedge the queue.
type Service struct {
	mu       sync.Mutex
	queue    *repositories.QueueRepository
	conn     Connectivity
	uploader Uploader
	evidence EvidenceStore
	events   Publisher
	interval time.Duration
}

func NewService(queue *repositories.QueueRepository, conn Connectivity, uploader Uploader, interval time.Duration) *Service {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Service{
		queue:    queue,
		conn:     conn,
		uploader: uploader,
		interval: interval,
	}
}

// SetEvidenceStore enables evidence photo upload ahead of each record.
func (s *Service) SetEvidenceStore(store EvidenceStore) { s.evidence = store }

// SetPublisher enables UI progress events.
func (s *Service) SetPublisher(p Publisher) { s.events = p }

// Reconcile runs one pass over the pending queue. Connectivity is
// probed fresh on every call; a cached answer from an earlier pass is
// worthless in the field.
func (s *Service) Reconcile(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.conn.Online(ctx) {
		metrics.SyncPassesTotal.WithLabelValues("offline").Inc()
		return Summary{}, ErrOffline
	}

	pending, err := s.queue.ListPending(ctx)
	if err != nil {
		return Summary{}, err
	}
	if len(pending) == 0 {
		metrics.SyncPassesTotal.WithLabelValues("empty").Inc()
		return Summary{}, nil
	}

	log.Printf("[Sync] Reconciling %d pending items", len(pending))
	var sum Summary
	for _, item := range pending {
		if err := s.uploadItem(ctx, item); err != nil {
			log.Printf("[Sync] Item %s (%s) failed: %v", item.ID, item.Kind, err)
			metrics.SyncUploadsTotal.WithLabelValues("failure").Inc()
			sum.Failed++
			continue
		}
		if err := s.queue.MarkSynced(ctx, item.ID); err != nil {
			// The remote accepted the record; the local flag flip failed.
			// The idempotent endpoint absorbs the replay next pass.
			log.Printf("[Sync] Item %s uploaded but not marked: %v", item.ID, err)
			metrics.SyncUploadsTotal.WithLabelValues("failure").Inc()
			sum.Failed++
			continue
		}
		metrics.SyncUploadsTotal.WithLabelValues("success").Inc()
		sum.Uploaded++
	}

	if n, err := s.queue.PendingCount(ctx); err == nil {
		metrics.PendingQueueItems.Set(float64(n))
	}
	metrics.SyncPassesTotal.WithLabelValues("completed").Inc()
	log.Printf("[Sync] Pass complete: %d uploaded, %d failed", sum.Uploaded, sum.Failed)
	if s.events != nil {
		s.events.Publish("sync.completed", sum)
	}
	return sum, nil
}

// uploadItem pushes the item's evidence first, then the record itself.
// A record referencing evidence the server cannot fetch is worse than a
// record arriving a pass late.
func (s *Service) uploadItem(ctx context.Context, item models.SyncQueueItem) error {
	for _, att := range item.Attachments {
		if s.evidence == nil {
			log.Printf("[Sync] No evidence store configured, skipping attachment %s", att)
			continue
		}
		body, err := os.ReadFile(att)
		if err != nil {
			return fmt.Errorf("%w: read attachment %s: %v", ErrUploadFailed, att, err)
		}
		key := path.Join("evidence", item.ID, filepath.Base(att))
		if err := s.evidence.Put(ctx, key, body, "image/jpeg"); err != nil {
			return err
		}
	}
	return s.uploader.Upload(ctx, item)
}

// Run reconciles opportunistically until the context is cancelled. An
// offline pass is routine, not an error worth logging loudly.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("[Sync] Background reconciler started (every %s)", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[Sync] Background reconciler stopped")
			return
		case <-ticker.C:
			if _, err := s.Reconcile(ctx); err != nil && !errors.Is(err, ErrOffline) {
				log.Printf("[Sync] Pass error: %v", err)
			}
		}
	}
}
