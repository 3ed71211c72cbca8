package postgres

import (
	"context"
	"database/sql"

	"docsmanager/internal/model"
	"docsmanager/internal/repository"
)

// CommentPostgres is a PostgreSQL implementation of repository.CommentRepository.
type CommentPostgres struct {
	db *sql.DB
}

func NewCommentPostgres(db *sql.DB) *CommentPostgres {
	return &CommentPostgres{db: db}
}

var _ repository.CommentRepository = (*CommentPostgres)(nil)

// Create inserts a comment and returns it with the author's username.
func (r *CommentPostgres) Create(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	const q = `
		WITH c AS (
			INSERT INTO comments (document_id, author_id, text)
			VALUES ($1, $2, $3)
			RETURNING id, document_id, author_id, text, created_at
		)
		SELECT c.id, c.document_id, c.author_id, u.username, c.text, c.created_at
		FROM c JOIN users u ON u.id = c.author_id
	`
	var out model.Comment
	err := r.db.QueryRowContext(ctx, q, c.DocumentID, c.AuthorID, c.Text).Scan(
		&out.ID,
		&out.DocumentID,
		&out.AuthorID,
		&out.AuthorUsername,
		&out.Text,
		&out.CreatedAt,
	)
	if err != nil {
		// the document was deleted between lookup and insert
		if hasCode(err, codeForeignKeyViolation) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &out, nil
}

// ListByDocument returns the comments of a document, newest first.
func (r *CommentPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.Comment, error) {
	const q = `
		SELECT c.id, c.document_id, c.author_id, u.username, c.text, c.created_at
		FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.document_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.AuthorID, &c.AuthorUsername, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
