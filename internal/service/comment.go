package service

import (
	"context"
	"database/sql"
	"errors"

	"docsmanager/internal/model"
	"docsmanager/internal/repository"
	"docsmanager/internal/validation"
)

// CommentService defines the use cases for document comments.
type CommentService interface {
	// Add attaches a comment by actor to an existing document.
	Add(ctx context.Context, actor *model.Actor, documentID, text string) (*model.Comment, error)

	// ListFor returns the comments of a document, newest first.
	ListFor(ctx context.Context, documentID string) ([]model.Comment, error)
}

type commentService struct {
	docs     repository.DocumentRepository
	comments repository.CommentRepository
}

func NewCommentService(docs repository.DocumentRepository, comments repository.CommentRepository) CommentService {
	return &commentService{docs: docs, comments: comments}
}

func (s *commentService) Add(ctx context.Context, actor *model.Actor, documentID, text string) (*model.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if documentID == "" {
		return nil, ErrIDRequired
	}

	form := validation.CommentForm{Text: text}
	form.Normalize()
	if errs := validation.ValidateStruct(form); errs != nil {
		return nil, errs
	}

	if _, err := s.docs.FindByID(ctx, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	c, err := s.comments.Create(ctx, &model.Comment{
		DocumentID: documentID,
		AuthorID:   actor.UserID,
		Text:       form.Text,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *commentService) ListFor(ctx context.Context, documentID string) ([]model.Comment, error) {
	if documentID == "" {
		return nil, ErrIDRequired
	}
	return s.comments.ListByDocument(ctx, documentID)
}
