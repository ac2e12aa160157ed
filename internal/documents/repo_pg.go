package documents

import (
	"context"
	"database/sql"
	"errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Insert stores a new document record.
func (r *PGRepo) Insert(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, user_id, title, doc_type, image_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	var imageURL sql.NullString
	if doc.ImageURL != "" {
		imageURL = sql.NullString{String: doc.ImageURL, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.Title,
		doc.DocType,
		imageURL,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches one document scoped to its owner.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	const query = `
SELECT id, user_id, title, doc_type, image_url, created_at
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`

	var doc Document
	var title sql.NullString
	var imageURL sql.NullString
	err := r.DB.QueryRowContext(ctx, query, userID, documentID).Scan(
		&doc.ID,
		&doc.UserID,
		&title,
		&doc.DocType,
		&imageURL,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if title.Valid {
		doc.Title = title.String
	}
	if imageURL.Valid {
		doc.ImageURL = imageURL.String
	}
	return doc, nil
}

// ListByUser lists a user's documents, newest first, ties broken by ID.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, q Query) ([]Document, error) {
	limit := clampLimit(q.Limit)

	const base = `
SELECT id, user_id, title, doc_type, image_url, created_at
FROM documents
WHERE user_id = $1`
	const ordering = `
ORDER BY created_at DESC, id DESC`

	var rows *sql.Rows
	var err error
	if filter := normalizeTypeFilter(q.DocType); filter != "" {
		rows, err = r.DB.QueryContext(ctx, base+` AND doc_type ILIKE $2`+ordering+` LIMIT $3`,
			userID, "%"+filter+"%", limit)
	} else {
		rows, err = r.DB.QueryContext(ctx, base+ordering+` LIMIT $2`, userID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		var title sql.NullString
		var imageURL sql.NullString
		if err := rows.Scan(
			&doc.ID,
			&doc.UserID,
			&title,
			&doc.DocType,
			&imageURL,
			&doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		if title.Valid {
			doc.Title = title.String
		}
		if imageURL.Valid {
			doc.ImageURL = imageURL.String
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

var _ Repo = (*PGRepo)(nil)
