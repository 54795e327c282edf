package replication

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/domain/replication"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/cron"
)

// Service copies committed canonical records into the secondary store
// through a durable outbox. Nothing in here may ever fail a submission:
// every error is logged and absorbed, and delivery is retried by the drain
// job until the secondary accepts it.
type Service struct {
	outbox    replication.OutboxRepository
	secondary replication.SecondaryWriter
	batchSize int
}

func NewService(outbox replication.OutboxRepository, secondary replication.SecondaryWriter, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{
		outbox:    outbox,
		secondary: secondary,
		batchSize: batchSize,
	}
}

// Replicate enqueues a copy request for a committed record. It never
// returns an error to the caller; a lost enqueue is logged and the record
// simply stays primary-only.
func (s *Service) Replicate(ctx context.Context, entityType string, canonicalID string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("replication payload marshal failed",
			"entity_type", entityType,
			"canonical_id", canonicalID,
			"error", err)
		return
	}

	if err := s.outbox.Enqueue(ctx, entityType, canonicalID, body); err != nil {
		slog.Error("replication enqueue failed",
			"entity_type", entityType,
			"canonical_id", canonicalID,
			"error", err)
	}
}

// DrainOnce delivers one batch of pending outbox entries to the secondary
// store. A failed delivery leaves its entry pending and moves on.
func (s *Service) DrainOnce(ctx context.Context) error {
	entries, err := s.outbox.ListPending(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending replication entries: %w", err)
	}

	delivered := 0
	for _, entry := range entries {
		if err := s.secondary.Upsert(ctx, entry.EntityType, entry.CanonicalID, entry.Payload); err != nil {
			slog.Warn("secondary store delivery failed",
				"outbox_id", entry.ID,
				"canonical_id", entry.CanonicalID,
				"attempts", entry.Attempts+1,
				"error", err)
			if markErr := s.outbox.MarkFailed(ctx, entry.ID, err.Error()); markErr != nil {
				slog.Error("failed to record replication failure", "outbox_id", entry.ID, "error", markErr)
			}
			continue
		}

		if err := s.outbox.MarkDelivered(ctx, entry.ID); err != nil {
			// The row stays pending; the upsert is idempotent, so the next
			// pass redelivers harmlessly.
			slog.Error("failed to mark replication entry delivered", "outbox_id", entry.ID, "error", err)
			continue
		}
		delivered++
	}

	if len(entries) > 0 {
		slog.Info("replication drain pass finished", "pending", len(entries), "delivered", delivered)
	}

	return nil
}

// RegisterJobs wires the drain job onto the scheduler.
func (s *Service) RegisterJobs(scheduler *cron.Scheduler, interval time.Duration) {
	scheduler.AddJob("replication_outbox_drain", interval, s.DrainOnce)
}
