package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// EventRepo reads events.  Event CRUD lives in another service; this
// repository only needs the booking-relevant columns.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, organiser_id, title, is_free, price, starts_at, created_at`

// GetByID fetches an event by id.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	list, err := r.query(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ? LIMIT 1`, id)
	if err != nil {
		return model.Event{}, err
	}
	if len(list) == 0 {
		return model.Event{}, ErrNotFound
	}
	return list[0], nil
}

// GetByIDs fetches the events whose ids are listed.  Unknown ids are
// simply absent from the returned map.
func (r *EventRepo) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Event, error) {
	out := make(map[uint64]model.Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	list, err := r.query(ctx, `SELECT `+eventColumns+` FROM events WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, ev := range list {
		out[ev.ID] = ev
	}
	return out, nil
}

func (r *EventRepo) query(ctx context.Context, q string, args ...any) ([]model.Event, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		var (
			ev       model.Event
			startsAt sql.NullTime
		)
		if err := rows.Scan(&ev.ID, &ev.OrganiserID, &ev.Title, &ev.IsFree, &ev.Price, &startsAt, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if startsAt.Valid {
			ts := startsAt.Time
			ev.StartsAt = &ts
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
