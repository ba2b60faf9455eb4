package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/calloway/hearthside/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	var allDay int
	err := scanner.Scan(
		&e.ID, &e.FamilyID, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
		&allDay, &e.Location, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.AllDay = allDay != 0
	return &e, nil
}

const eventCols = `id, family_id, title, description, start_time, end_time, all_day, location, created_by, created_at, updated_at`

func (s *EventStore) Create(familyID int64, title, description string, start, end time.Time, allDay bool, location string, createdBy int64) (*model.Event, error) {
	result, err := s.db.Exec(
		`INSERT INTO events (family_id, title, description, start_time, end_time, all_day, location, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		familyID, title, description, start.UTC(), end.UTC(), boolToInt(allDay), location, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

// GetByID is family-scoped: an id belonging to another family scans as
// absent, never as someone else's row.
func (s *EventStore) GetByID(id, familyID int64) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ? AND family_id = ?`, id, familyID)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (s *EventStore) ListByDateRange(familyID int64, start, end time.Time) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM events
		 WHERE family_id = ? AND start_time < ? AND end_time > ?
		 ORDER BY start_time ASC`,
		familyID, end.UTC(), start.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list events by date range: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) Update(id, familyID int64, title, description string, start, end time.Time, allDay bool, location string) (*model.Event, error) {
	_, err := s.db.Exec(
		`UPDATE events SET title = ?, description = ?, start_time = ?, end_time = ?, all_day = ?, location = ?, updated_at = datetime('now')
		 WHERE id = ? AND family_id = ?`,
		title, description, start.UTC(), end.UTC(), boolToInt(allDay), location, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *EventStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
