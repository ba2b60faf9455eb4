package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/calloway/hearthside/internal/model"
)

type InviteStore struct {
	db *sql.DB
}

func NewInviteStore(db *sql.DB) *InviteStore {
	return &InviteStore{db: db}
}

func scanInviteCode(scanner interface{ Scan(...any) error }) (*model.InviteCode, error) {
	var ic model.InviteCode
	var expiresAt, revokedAt, lastRedeemedAt sql.NullTime

	err := scanner.Scan(
		&ic.ID, &ic.Code, &ic.FamilyID, &ic.Role, &ic.CreatedBy,
		&expiresAt, &revokedAt, &ic.RedeemCount, &lastRedeemedAt, &ic.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		ic.ExpiresAt = &expiresAt.Time
	}
	if revokedAt.Valid {
		ic.RevokedAt = &revokedAt.Time
	}
	if lastRedeemedAt.Valid {
		ic.LastRedeemedAt = &lastRedeemedAt.Time
	}
	return &ic, nil
}

const inviteCols = `id, code, family_id, role, created_by, expires_at, revoked_at, redeem_count, last_redeemed_at, created_at`

// Create persists a code. Codes are stored uppercase; the UNIQUE constraint
// on code is the global-uniqueness invariant and the caller retries on
// conflict.
func (s *InviteStore) Create(code string, familyID int64, role string, createdBy int64, expiresAt *time.Time) (*model.InviteCode, error) {
	var exp sql.NullTime
	if expiresAt != nil {
		exp = sql.NullTime{Time: expiresAt.UTC(), Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO invite_codes (code, family_id, role, created_by, expires_at) VALUES (?, ?, ?, ?, ?)`,
		strings.ToUpper(code), familyID, role, createdBy, exp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert invite code: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+inviteCols+` FROM invite_codes WHERE id = ?`, id)
	return scanInviteCode(row)
}

// GetByCode looks a code up case-insensitively, or nil if unknown.
func (s *InviteStore) GetByCode(code string) (*model.InviteCode, error) {
	row := s.db.QueryRow(
		`SELECT `+inviteCols+` FROM invite_codes WHERE code = ?`,
		strings.ToUpper(strings.TrimSpace(code)),
	)
	ic, err := scanInviteCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invite code: %w", err)
	}
	return ic, nil
}

// MarkRedeemed bumps the redemption counter for audit. The row is kept.
func (s *InviteStore) MarkRedeemed(id int64) error {
	_, err := s.db.Exec(
		`UPDATE invite_codes SET redeem_count = redeem_count + 1, last_redeemed_at = datetime('now') WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark invite code redeemed: %w", err)
	}
	return nil
}

func (s *InviteStore) Revoke(id int64) error {
	_, err := s.db.Exec(
		`UPDATE invite_codes SET revoked_at = datetime('now') WHERE id = ? AND revoked_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("revoke invite code: %w", err)
	}
	return nil
}

func (s *InviteStore) ListByFamily(familyID int64) ([]model.InviteCode, error) {
	rows, err := s.db.Query(
		`SELECT `+inviteCols+` FROM invite_codes WHERE family_id = ? ORDER BY created_at DESC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list invite codes: %w", err)
	}
	defer rows.Close()

	var codes []model.InviteCode
	for rows.Next() {
		ic, err := scanInviteCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invite code: %w", err)
		}
		codes = append(codes, *ic)
	}
	return codes, rows.Err()
}
