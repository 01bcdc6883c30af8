package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, file_name, s3_name, s3_url, textract_job, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var job sql.NullString
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.S3Name,
		&doc.S3URL,
		&job,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}
	if job.Valid {
		doc.TextractJob = job.String
	}
	return doc, nil
}

// Create inserts a new document and lets the database generate its id.
func (r *PGRepo) Create(ctx context.Context, doc Document) (Document, error) {
	const query = `
INSERT INTO documents (user_id, file_name, s3_name, s3_url)
VALUES ($1, $2, $3, $4)
RETURNING ` + documentColumns

	created, err := scanDocument(r.DB.QueryRowContext(ctx, query,
		doc.UserID,
		doc.FileName,
		doc.S3Name,
		doc.S3URL,
	))
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	return created, nil
}

// GetByID fetches a document by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, id string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// SetTextractJob records the analysis job id on the user's document.
func (r *PGRepo) SetTextractJob(ctx context.Context, userID, id, jobID string) error {
	const query = `
UPDATE documents
SET textract_job = $1
WHERE id = $2 AND user_id = $3`

	res, err := r.DB.ExecContext(ctx, query, jobID, id, userID)
	if err != nil {
		return fmt.Errorf("update textract job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update textract job: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
