package repository

import (
	"context"
	"errors"

	"docsmanager/internal/model"
)

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("record already exists")

// DocumentRepository defines data access for documents using SQL queries only.
// Lookups of a missing row return sql.ErrNoRows.
type DocumentRepository interface {
	// Create inserts a new document record. ID and StoragePath must be set by the caller;
	// timestamps are assigned by the database.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, including the author's username.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns a page of documents, newest upload first, and the total count for the filter.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// UpdateDetails changes the title and description and refreshes updated_at.
	UpdateDetails(ctx context.Context, id, title, description string) (*model.Document, error)

	// Delete removes the document and its comments in one transaction.
	Delete(ctx context.Context, id string) error
}

// CommentRepository defines data access for comments.
type CommentRepository interface {
	// Create inserts a comment. A missing parent document yields sql.ErrNoRows.
	Create(ctx context.Context, c *model.Comment) (*model.Comment, error)

	// ListByDocument returns the comments of a document, newest first.
	ListByDocument(ctx context.Context, documentID string) ([]model.Comment, error)
}

// UserRepository defines data access for accounts.
type UserRepository interface {
	// Create inserts a user. A taken username yields ErrConflict.
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// PageQuery holds limit/offset pagination parameters and an optional title filter.
type PageQuery struct {
	Search string
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
