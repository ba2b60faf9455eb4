package store

import (
	"database/sql"
	"fmt"

	"github.com/calloway/hearthside/internal/model"
)

// FamilyStore owns family rows and the membership relation. Membership
// writes happen only through the lifecycle manager and the invite service,
// never directly from handlers.
type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	err := scanner.Scan(&f.ID, &f.Name, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func scanMembership(scanner interface{ Scan(...any) error }) (*model.Membership, error) {
	var m model.Membership
	err := scanner.Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const familyCols = `id, name, created_by, created_at, updated_at`
const membershipCols = `id, family_id, user_id, role, joined_at`

// CreateWithOwner inserts a family and its owner membership in one
// transaction. A family never exists without exactly one owner.
func (s *FamilyStore) CreateWithOwner(name string, ownerID int64) (*model.Family, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT INTO families (name, created_by) VALUES (?, ?)`, name, ownerID)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	familyID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO memberships (family_id, user_id, role) VALUES (?, ?, ?)`,
		familyID, ownerID, model.RoleOwner,
	); err != nil {
		return nil, fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID)
}

func (s *FamilyStore) GetByID(id int64) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) UpdateName(id int64, name string) (*model.Family, error) {
	_, err := s.db.Exec(`UPDATE families SET name = ?, updated_at = datetime('now') WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("update family: %w", err)
	}
	return s.GetByID(id)
}

// ListForUser returns the families the user belongs to, oldest first. The
// ordering is load-bearing: the active-family selector falls back to the
// first entry when the persisted preference goes stale.
func (s *FamilyStore) ListForUser(userID int64) ([]model.Family, error) {
	rows, err := s.db.Query(
		`SELECT f.id, f.name, f.created_by, f.created_at, f.updated_at
		 FROM families f
		 JOIN memberships m ON f.id = m.family_id
		 WHERE m.user_id = ?
		 ORDER BY f.created_at ASC, f.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list families for user: %w", err)
	}
	defer rows.Close()

	var families []model.Family
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		families = append(families, *f)
	}
	return families, rows.Err()
}

func (s *FamilyStore) AddMember(familyID, userID int64, role string) (*model.Membership, error) {
	result, err := s.db.Exec(
		`INSERT INTO memberships (family_id, user_id, role) VALUES (?, ?, ?)`,
		familyID, userID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+membershipCols+` FROM memberships WHERE id = ?`, id)
	return scanMembership(row)
}

func (s *FamilyStore) RemoveMember(familyID, userID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM memberships WHERE family_id = ? AND user_id = ?`,
		familyID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *FamilyStore) GetMember(familyID, userID int64) (*model.Membership, error) {
	row := s.db.QueryRow(
		`SELECT `+membershipCols+` FROM memberships WHERE family_id = ? AND user_id = ?`,
		familyID, userID,
	)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *FamilyStore) ListMembers(familyID int64) ([]model.Membership, error) {
	rows, err := s.db.Query(
		`SELECT `+membershipCols+` FROM memberships WHERE family_id = ? ORDER BY joined_at ASC, id ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// DeleteCascade removes a family and every row that references it in a
// single transaction. Resource tables go first, then invite codes, then
// memberships, then the family row; any failure rolls the whole thing back
// so a partially-deleted family is never observable.
func (s *FamilyStore) DeleteCascade(familyID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM medication_logs WHERE family_id = ?`,
		`DELETE FROM medications WHERE family_id = ?`,
		`DELETE FROM events WHERE family_id = ?`,
		`DELETE FROM documents WHERE family_id = ?`,
		`DELETE FROM messages WHERE family_id = ?`,
		`DELETE FROM time_entries WHERE family_id = ?`,
		`DELETE FROM pay_rates WHERE family_id = ?`,
		`DELETE FROM invite_codes WHERE family_id = ?`,
		`DELETE FROM memberships WHERE family_id = ?`,
		`DELETE FROM families WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, familyID); err != nil {
			return fmt.Errorf("cascade delete family %d: %w", familyID, err)
		}
	}

	return tx.Commit()
}
