package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/askmate/apiserver/types"
)

// ModerationEventRepository persists the resource moderation audit trail.
type ModerationEventRepository struct {
	db *sql.DB
}

func NewModerationEventRepository(db *sql.DB) *ModerationEventRepository {
	return &ModerationEventRepository{db: db}
}

func (r *ModerationEventRepository) Create(ctx context.Context, event types.ModerationEvent) (types.ModerationEvent, error) {
	event.CreatedAt = time.Now()

	const query = `
		INSERT INTO moderation_events (resource_id, actor_id, actor_role, from_status, to_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		event.ResourceID,
		event.ActorID,
		string(event.ActorRole),
		string(event.FromStatus),
		string(event.ToStatus),
		event.CreatedAt,
	).Scan(&event.ID); err != nil {
		return types.ModerationEvent{}, err
	}
	return event, nil
}

// ListByResource returns a resource's transitions, oldest first.
func (r *ModerationEventRepository) ListByResource(ctx context.Context, resourceID int) ([]types.ModerationEvent, error) {
	const query = `
		SELECT id, resource_id, actor_id, actor_role, from_status, to_status, created_at
		FROM moderation_events
		WHERE resource_id = $1
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []types.ModerationEvent
	for rows.Next() {
		var event types.ModerationEvent
		if err := rows.Scan(
			&event.ID,
			&event.ResourceID,
			&event.ActorID,
			&event.ActorRole,
			&event.FromStatus,
			&event.ToStatus,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
