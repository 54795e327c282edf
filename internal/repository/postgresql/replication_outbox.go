package postgresql

import (
	"context"
	"fmt"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/domain/replication"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/database"
)

type replicationOutboxRepository struct {
	db *database.DB
}

func NewReplicationOutboxRepository(db *database.DB) replication.OutboxRepository {
	return &replicationOutboxRepository{db: db}
}

// Enqueue implements replication.OutboxRepository.
func (r *replicationOutboxRepository) Enqueue(ctx context.Context, entityType string, canonicalID string, payload []byte) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO replication_outbox (entity_type, canonical_id, payload, status)
		VALUES ($1, $2, $3, 'pending')
	`

	if _, err := q.Exec(ctx, query, entityType, canonicalID, payload); err != nil {
		return fmt.Errorf("failed to enqueue replication entry: %w", err)
	}

	return nil
}

// ListPending implements replication.OutboxRepository.
func (r *replicationOutboxRepository) ListPending(ctx context.Context, limit int) ([]replication.OutboxEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, entity_type, canonical_id, payload, attempts, status, last_error, created_at, updated_at
		FROM replication_outbox
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending replication entries: %w", err)
	}
	defer rows.Close()

	var entries []replication.OutboxEntry
	for rows.Next() {
		var e replication.OutboxEntry
		err := rows.Scan(
			&e.ID, &e.EntityType, &e.CanonicalID, &e.Payload,
			&e.Attempts, &e.Status, &e.LastError, &e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan replication entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read replication entries: %w", err)
	}

	return entries, nil
}

// MarkDelivered implements replication.OutboxRepository.
func (r *replicationOutboxRepository) MarkDelivered(ctx context.Context, id int64) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE replication_outbox
		SET status = 'delivered', last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := q.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark replication entry delivered: %w", err)
	}

	return nil
}

// MarkFailed implements replication.OutboxRepository.
func (r *replicationOutboxRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE replication_outbox
		SET attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := q.Exec(ctx, query, id, reason); err != nil {
		return fmt.Errorf("failed to mark replication entry failed: %w", err)
	}

	return nil
}
