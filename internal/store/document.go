package store

import (
	"database/sql"
	"fmt"

	"github.com/calloway/hearthside/internal/model"
)

type DocumentStore struct {
	db *sql.DB
}

func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func scanDocument(scanner interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	err := scanner.Scan(
		&d.ID, &d.FamilyID, &d.Title, &d.Filename, &d.ContentType,
		&d.SizeBytes, &d.BlobKey, &d.UploadedBy, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

const documentCols = `id, family_id, title, filename, content_type, size_bytes, blob_key, uploaded_by, created_at`

func (s *DocumentStore) Create(familyID int64, title, filename, contentType string, sizeBytes int64, blobKey string, uploadedBy int64) (*model.Document, error) {
	result, err := s.db.Exec(
		`INSERT INTO documents (family_id, title, filename, content_type, size_bytes, blob_key, uploaded_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		familyID, title, filename, contentType, sizeBytes, blobKey, uploadedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *DocumentStore) GetByID(id, familyID int64) (*model.Document, error) {
	row := s.db.QueryRow(`SELECT `+documentCols+` FROM documents WHERE id = ? AND family_id = ?`, id, familyID)
	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (s *DocumentStore) ListByFamily(familyID int64) ([]model.Document, error) {
	rows, err := s.db.Query(
		`SELECT `+documentCols+` FROM documents WHERE family_id = ? ORDER BY created_at DESC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// ListBlobKeys returns the object keys for every document in the family.
// The lifecycle manager collects these before a cascade delete so the
// objects can be removed after the transaction commits.
func (s *DocumentStore) ListBlobKeys(familyID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT blob_key FROM documents WHERE family_id = ? AND blob_key != ''`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list blob keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan blob key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *DocumentStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
