package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"docsmanager/internal/model"
	"docsmanager/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `d.id, d.title, d.description, d.author_id, COALESCE(u.username, ''),
		d.storage_path, d.file_name, d.file_size, d.file_type, d.file_extension,
		d.uploaded_at, d.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var (
		d        model.Document
		authorID sql.NullString
	)
	if err := s.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&authorID,
		&d.AuthorUsername,
		&d.StoragePath,
		&d.FileName,
		&d.FileSize,
		&d.FileType,
		&d.FileExtension,
		&d.UploadedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.AuthorID = stringPtr(authorID)
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		WITH d AS (
			INSERT INTO documents (id, title, description, author_id, storage_path,
				file_name, file_size, file_type, file_extension)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING *
		)
		SELECT ` + documentColumns + `
		FROM d LEFT JOIN users u ON u.id = d.author_id
	`
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Description,
		nullString(doc.AuthorID),
		doc.StoragePath,
		doc.FileName,
		doc.FileSize,
		doc.FileType,
		doc.FileExtension,
	)
	out, err := scanDocument(row)
	if err != nil {
		if hasCode(err, codeUniqueViolation) {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents d LEFT JOIN users u ON u.id = d.author_id
		WHERE d.id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
// A non-empty Search keeps titles containing it, ignoring case.
func (r *DocumentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	where := ""
	args := []any{}
	if pq.Search != "" {
		where = `WHERE d.title ILIKE $1 ESCAPE '\'`
		args = append(args, containsPattern(pq.Search))
	}

	var total int
	qCount := `SELECT COUNT(*) FROM documents d ` + where
	if err := r.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	qList := fmt.Sprintf(`
		SELECT %s
		FROM documents d LEFT JOIN users u ON u.id = d.author_id
		%s
		ORDER BY d.uploaded_at DESC, d.id DESC
		LIMIT $%d OFFSET $%d
	`, documentColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, qList, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateDetails rewrites title and description and returns the updated record.
func (r *DocumentPostgres) UpdateDetails(ctx context.Context, id, title, description string) (*model.Document, error) {
	const q = `
		WITH d AS (
			UPDATE documents SET title = $2, description = $3, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + documentColumns + `
		FROM d LEFT JOIN users u ON u.id = d.author_id
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id, title, description))
}

// Delete removes a document and its comments atomically.
// It returns sql.ErrNoRows if the document does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE document_id = $1`, id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

