package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/calloway/hearthside/internal/model"
)

type MedicationStore struct {
	db *sql.DB
}

func NewMedicationStore(db *sql.DB) *MedicationStore {
	return &MedicationStore{db: db}
}

func scanMedication(scanner interface{ Scan(...any) error }) (*model.Medication, error) {
	var m model.Medication
	err := scanner.Scan(&m.ID, &m.FamilyID, &m.Name, &m.Dosage, &m.Schedule, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanMedicationLog(scanner interface{ Scan(...any) error }) (*model.MedicationLog, error) {
	var l model.MedicationLog
	err := scanner.Scan(&l.ID, &l.FamilyID, &l.MedicationID, &l.TakenAt, &l.Note, &l.LoggedBy, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const medicationCols = `id, family_id, name, dosage, schedule, created_at, updated_at`
const medicationLogCols = `id, family_id, medication_id, taken_at, note, logged_by, created_at`

func (s *MedicationStore) Create(familyID int64, name, dosage, schedule string) (*model.Medication, error) {
	result, err := s.db.Exec(
		`INSERT INTO medications (family_id, name, dosage, schedule) VALUES (?, ?, ?, ?)`,
		familyID, name, dosage, schedule,
	)
	if err != nil {
		return nil, fmt.Errorf("insert medication: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *MedicationStore) GetByID(id, familyID int64) (*model.Medication, error) {
	row := s.db.QueryRow(`SELECT `+medicationCols+` FROM medications WHERE id = ? AND family_id = ?`, id, familyID)
	m, err := scanMedication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medication: %w", err)
	}
	return m, nil
}

func (s *MedicationStore) ListByFamily(familyID int64) ([]model.Medication, error) {
	rows, err := s.db.Query(
		`SELECT `+medicationCols+` FROM medications WHERE family_id = ? ORDER BY name ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var meds []model.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		meds = append(meds, *m)
	}
	return meds, rows.Err()
}

func (s *MedicationStore) Update(id, familyID int64, name, dosage, schedule string) (*model.Medication, error) {
	_, err := s.db.Exec(
		`UPDATE medications SET name = ?, dosage = ?, schedule = ?, updated_at = datetime('now')
		 WHERE id = ? AND family_id = ?`,
		name, dosage, schedule, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update medication: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *MedicationStore) Delete(id, familyID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM medication_logs WHERE medication_id = ? AND family_id = ?`, id, familyID); err != nil {
		return fmt.Errorf("delete medication logs: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM medications WHERE id = ? AND family_id = ?`, id, familyID); err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	return tx.Commit()
}

func (s *MedicationStore) CreateLog(familyID, medicationID int64, takenAt time.Time, note string, loggedBy int64) (*model.MedicationLog, error) {
	result, err := s.db.Exec(
		`INSERT INTO medication_logs (family_id, medication_id, taken_at, note, logged_by) VALUES (?, ?, ?, ?, ?)`,
		familyID, medicationID, takenAt.UTC(), note, loggedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert medication log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetLogByID(id, familyID)
}

func (s *MedicationStore) GetLogByID(id, familyID int64) (*model.MedicationLog, error) {
	row := s.db.QueryRow(`SELECT `+medicationLogCols+` FROM medication_logs WHERE id = ? AND family_id = ?`, id, familyID)
	l, err := scanMedicationLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medication log: %w", err)
	}
	return l, nil
}

func (s *MedicationStore) ListLogs(familyID, medicationID int64) ([]model.MedicationLog, error) {
	rows, err := s.db.Query(
		`SELECT `+medicationLogCols+` FROM medication_logs
		 WHERE family_id = ? AND medication_id = ? ORDER BY taken_at DESC`,
		familyID, medicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list medication logs: %w", err)
	}
	defer rows.Close()

	var logs []model.MedicationLog
	for rows.Next() {
		l, err := scanMedicationLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func (s *MedicationStore) UpdateLog(id, familyID int64, takenAt time.Time, note string) (*model.MedicationLog, error) {
	_, err := s.db.Exec(
		`UPDATE medication_logs SET taken_at = ?, note = ? WHERE id = ? AND family_id = ?`,
		takenAt.UTC(), note, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update medication log: %w", err)
	}
	return s.GetLogByID(id, familyID)
}

func (s *MedicationStore) DeleteLog(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM medication_logs WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete medication log: %w", err)
	}
	return nil
}
