package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/biyonik/ticket-purchase-api/internal/models"
	"github.com/biyonik/ticket-purchase-api/pkg/database"
)

type EventRepository struct {
	conn
}

func NewEventRepository(db *sql.DB, grammar database.Grammar) *EventRepository {
	return &EventRepository{conn: newConn(db, grammar)}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) (int64, error) {
	event.Initialize(time.Now())

	result, err := r.table(tableEvent).ExecInsert(ctx, map[string]interface{}{
		"user_id":    event.UserID,
		"name":       event.Name,
		"starts_at":  event.StartsAt.UTC(),
		"created_at": event.CreatedAt,
		"updated_at": event.UpdatedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	event.ID = id
	return id, nil
}

func (r *EventRepository) AddImage(ctx context.Context, image *models.EventImage) (int64, error) {
	image.Initialize(time.Now())

	result, err := r.table(tableEventImage).ExecInsert(ctx, map[string]interface{}{
		"event_id":   image.EventID,
		"url":        image.URL,
		"created_at": image.CreatedAt,
		"updated_at": image.UpdatedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add event image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	image.ID = id
	return id, nil
}

// FindByID returns the bare event row (no images), or sql.ErrNoRows.
func (r *EventRepository) FindByID(ctx context.Context, id int64) (*models.Event, error) {
	event := &models.Event{}
	if err := r.table(tableEvent).Where("id", "=", id).First(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// FindByIDsWithFirstImage loads events and attaches at most one image each:
// the one with the lowest id. Images are picked per event in SQL, so the
// result does not grow with an event's gallery.
func (r *EventRepository) FindByIDsWithFirstImage(ctx context.Context, ids []int64) ([]*models.Event, error) {
	var events []*models.Event
	if len(ids) == 0 {
		return events, nil
	}
	if err := r.table(tableEvent).WhereIn("id", int64Args(ids)).Get(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}

	var firsts []struct {
		ID int64 `db:"id"`
	}
	err := r.table(tableEventImage).
		SelectMin("id", "id").
		WhereIn("event_id", int64Args(ids)).
		GroupBy("event_id").
		Get(ctx, &firsts)
	if err != nil {
		return nil, fmt.Errorf("failed to find first event images: %w", err)
	}

	imageIDs := make([]int64, 0, len(firsts))
	for _, f := range firsts {
		imageIDs = append(imageIDs, f.ID)
	}

	var images []models.EventImage
	if len(imageIDs) > 0 {
		if err := r.table(tableEventImage).WhereIn("id", int64Args(imageIDs)).Get(ctx, &images); err != nil {
			return nil, fmt.Errorf("failed to find event images: %w", err)
		}
	}

	byEvent := make(map[int64]models.EventImage, len(images))
	for _, img := range images {
		byEvent[img.EventID] = img
	}
	for _, e := range events {
		e.Images = []models.EventImage{}
		if img, ok := byEvent[e.ID]; ok {
			e.Images = append(e.Images, img)
		}
	}
	return events, nil
}
