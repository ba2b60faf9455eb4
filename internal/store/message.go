package store

import (
	"database/sql"
	"fmt"

	"github.com/calloway/hearthside/internal/model"
)

type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

func scanMessage(scanner interface{ Scan(...any) error }) (*model.Message, error) {
	var m model.Message
	err := scanner.Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Body, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const messageCols = `id, family_id, user_id, body, created_at`

func (s *MessageStore) Create(familyID, userID int64, body string) (*model.Message, error) {
	result, err := s.db.Exec(
		`INSERT INTO messages (family_id, user_id, body) VALUES (?, ?, ?)`,
		familyID, userID, body,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *MessageStore) GetByID(id, familyID int64) (*model.Message, error) {
	row := s.db.QueryRow(`SELECT `+messageCols+` FROM messages WHERE id = ? AND family_id = ?`, id, familyID)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// ListByFamily returns messages newest first, capped at limit (<=0 means 100).
func (s *MessageStore) ListByFamily(familyID int64, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT `+messageCols+` FROM messages WHERE family_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		familyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func (s *MessageStore) Update(id, familyID int64, body string) (*model.Message, error) {
	_, err := s.db.Exec(`UPDATE messages SET body = ? WHERE id = ? AND family_id = ?`, body, id, familyID)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *MessageStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM messages WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
