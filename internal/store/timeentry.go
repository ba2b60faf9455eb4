package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/calloway/hearthside/internal/model"
)

type TimeEntryStore struct {
	db *sql.DB
}

func NewTimeEntryStore(db *sql.DB) *TimeEntryStore {
	return &TimeEntryStore{db: db}
}

func scanTimeEntry(scanner interface{ Scan(...any) error }) (*model.TimeEntry, error) {
	var t model.TimeEntry
	var endTime sql.NullTime
	err := scanner.Scan(&t.ID, &t.FamilyID, &t.UserID, &t.StartTime, &endTime, &t.Note, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		t.EndTime = &endTime.Time
	}
	return &t, nil
}

func scanPayRate(scanner interface{ Scan(...any) error }) (*model.PayRate, error) {
	var p model.PayRate
	err := scanner.Scan(&p.ID, &p.FamilyID, &p.UserID, &p.HourlyCents, &p.Currency, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const timeEntryCols = `id, family_id, user_id, start_time, end_time, note, created_at, updated_at`
const payRateCols = `id, family_id, user_id, hourly_cents, currency, created_at, updated_at`

func (s *TimeEntryStore) Create(familyID, userID int64, start time.Time, end *time.Time, note string) (*model.TimeEntry, error) {
	var endVal sql.NullTime
	if end != nil {
		endVal = sql.NullTime{Time: end.UTC(), Valid: true}
	}
	result, err := s.db.Exec(
		`INSERT INTO time_entries (family_id, user_id, start_time, end_time, note) VALUES (?, ?, ?, ?, ?)`,
		familyID, userID, start.UTC(), endVal, note,
	)
	if err != nil {
		return nil, fmt.Errorf("insert time entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *TimeEntryStore) GetByID(id, familyID int64) (*model.TimeEntry, error) {
	row := s.db.QueryRow(`SELECT `+timeEntryCols+` FROM time_entries WHERE id = ? AND family_id = ?`, id, familyID)
	t, err := scanTimeEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get time entry: %w", err)
	}
	return t, nil
}

func (s *TimeEntryStore) ListByFamily(familyID int64) ([]model.TimeEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+timeEntryCols+` FROM time_entries WHERE family_id = ? ORDER BY start_time DESC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	var entries []model.TimeEntry
	for rows.Next() {
		t, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		entries = append(entries, *t)
	}
	return entries, rows.Err()
}

func (s *TimeEntryStore) Update(id, familyID int64, start time.Time, end *time.Time, note string) (*model.TimeEntry, error) {
	var endVal sql.NullTime
	if end != nil {
		endVal = sql.NullTime{Time: end.UTC(), Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE time_entries SET start_time = ?, end_time = ?, note = ?, updated_at = datetime('now')
		 WHERE id = ? AND family_id = ?`,
		start.UTC(), endVal, note, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update time entry: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *TimeEntryStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM time_entries WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete time entry: %w", err)
	}
	return nil
}

// SetPayRate upserts the hourly rate for a user in a family.
func (s *TimeEntryStore) SetPayRate(familyID, userID, hourlyCents int64, currency string) (*model.PayRate, error) {
	_, err := s.db.Exec(
		`INSERT INTO pay_rates (family_id, user_id, hourly_cents, currency) VALUES (?, ?, ?, ?)
		 ON CONFLICT(family_id, user_id) DO UPDATE SET hourly_cents = excluded.hourly_cents, currency = excluded.currency, updated_at = datetime('now')`,
		familyID, userID, hourlyCents, currency,
	)
	if err != nil {
		return nil, fmt.Errorf("set pay rate: %w", err)
	}
	return s.GetPayRate(familyID, userID)
}

func (s *TimeEntryStore) GetPayRate(familyID, userID int64) (*model.PayRate, error) {
	row := s.db.QueryRow(`SELECT `+payRateCols+` FROM pay_rates WHERE family_id = ? AND user_id = ?`, familyID, userID)
	p, err := scanPayRate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pay rate: %w", err)
	}
	return p, nil
}

func (s *TimeEntryStore) ListPayRates(familyID int64) ([]model.PayRate, error) {
	rows, err := s.db.Query(`SELECT `+payRateCols+` FROM pay_rates WHERE family_id = ? ORDER BY user_id ASC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list pay rates: %w", err)
	}
	defer rows.Close()

	var rates []model.PayRate
	for rows.Next() {
		p, err := scanPayRate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pay rate: %w", err)
		}
		rates = append(rates, *p)
	}
	return rates, rows.Err()
}

func (s *TimeEntryStore) DeletePayRate(familyID, userID int64) error {
	_, err := s.db.Exec(`DELETE FROM pay_rates WHERE family_id = ? AND user_id = ?`, familyID, userID)
	if err != nil {
		return fmt.Errorf("delete pay rate: %w", err)
	}
	return nil
}
