package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docsmanager/internal/model"
	"docsmanager/internal/policy"
	"docsmanager/internal/repository"
	"docsmanager/internal/storage"
	"docsmanager/internal/validation"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200

	storagePrefix = "documents"
	sniffLimit    = 3072
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// ListQuery filters and pages the document listing.
type ListQuery struct {
	Search string
	Limit  int
	Offset int
}

// UploadInput is a new document submission. Size is the declared payload length, or -1 if unknown.
type UploadInput struct {
	Title       string
	Description string
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Download is an opened payload together with its record. The caller closes Content.
// Size is the stored length in bytes, or -1 if the backend does not report it.
type Download struct {
	Document *model.Document
	Content  io.ReadCloser
	Size     int64
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload validates the submission, streams the payload to storage and saves the record.
	// The payload is removed again if the record cannot be saved.
	Upload(ctx context.Context, actor *model.Actor, in UploadInput) (*model.Document, error)

	// List returns documents, newest first, using limit/offset and a total count.
	List(ctx context.Context, q ListQuery) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// UpdateDetails changes title and description. Only the author or staff may edit.
	UpdateDetails(ctx context.Context, actor *model.Actor, id, title, description string) (*model.Document, error)

	// Delete removes the record, its comments and its payload, returning the removed record.
	Delete(ctx context.Context, actor *model.Actor, id string) (*model.Document, error)

	// Download opens the stored payload for streaming.
	Download(ctx context.Context, id string) (*Download, error)

	// Rules returns the upload limits in force.
	Rules() validation.FileRules
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store storage.Storage
	repo  repository.DocumentRepository
	rules validation.FileRules
	log   *zap.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, rules validation.FileRules, log *zap.Logger) DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &documentService{
		store: store,
		repo:  repo,
		rules: rules,
		log:   log.With(zap.String("component", "document_service")),
	}
}

func (s *documentService) Rules() validation.FileRules {
	return s.rules
}

func (s *documentService) Upload(ctx context.Context, actor *model.Actor, in UploadInput) (*model.Document, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if in.FileName != "" && in.Content == nil {
		return nil, ErrReaderNil
	}

	form := validation.UploadForm{Title: in.Title, Description: in.Description}
	form.Normalize()
	errs := validation.ValidateStruct(form)
	if in.FileName == "" {
		errs.Add("file", "required", "this field is required")
	} else if fe := validation.CheckFileName("file", in.FileName); fe != nil {
		errs = append(errs, *fe)
	} else if err := s.rules.Check(in.FileName, in.Size); err != nil {
		var rej *validation.Rejection
		if !errors.As(err, &rej) {
			return nil, err
		}
		errs.AddRejection("file", rej)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	content, contentType, err := sniffContentType(in.Content, in.ContentType)
	if err != nil {
		return nil, &StorageError{Op: "read upload", Err: err}
	}

	id := uuid.New().String()
	ext := validation.Extension(in.FileName)
	key := storagePrefix + "/" + id
	if ext != "" {
		key += "." + ext
	}

	// Upload to storage
	objInfo, err := s.store.Put(ctx, key, content, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": in.FileName,
		},
	})
	if err != nil {
		return nil, &StorageError{Op: "upload to storage", Err: err}
	}

	authorID := actor.UserID
	doc := &model.Document{
		ID:            id,
		Title:         form.Title,
		Description:   form.Description,
		AuthorID:      &authorID,
		StoragePath:   key,
		FileName:      in.FileName,
		FileSize:      objInfo.Size,
		FileType:      contentType,
		FileExtension: ext,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the payload from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Error("document_rollback_failed",
				zap.String("storage_path", key),
				zap.Error(delErr),
			)
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.log.Info("document_uploaded",
		zap.String("document_id", stored.ID),
		zap.String("author_id", actor.UserID),
		zap.Int64("file_size", stored.FileSize),
	)
	return stored, nil
}

// sniffContentType keeps a declared type unless it is missing, generic or too long
// to store, in which case the type is detected from the first bytes of r.
// The returned reader yields the complete content.
func sniffContentType(r io.Reader, declared string) (io.Reader, string, error) {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" && len(declared) <= validation.MaxContentTypeLength {
		return r, declared, nil
	}

	head := make([]byte, sniffLimit)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", err
	}
	head = head[:n]
	return io.MultiReader(bytes.NewReader(head), r), mimetype.Detect(head).String(), nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, q ListQuery) (*DocumentListResult, error) {
	limit, offset := q.Limit, q.Offset
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{
		Search: strings.TrimSpace(q.Search),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) UpdateDetails(ctx context.Context, actor *model.Actor, id, title, description string) (*model.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanEdit(actor, doc) {
		return nil, ErrPermissionDenied
	}

	form := validation.UploadForm{Title: title, Description: description}
	form.Normalize()
	if errs := validation.ValidateStruct(form); errs != nil {
		return nil, errs
	}

	updated, err := s.repo.UpdateDetails(ctx, id, form.Title, form.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete commits the record removal first and then removes the payload.
// A payload that cannot be removed is logged as orphaned; the delete still succeeds.
func (s *documentService) Delete(ctx context.Context, actor *model.Actor, id string) (*model.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanDelete(actor, doc) {
		s.log.Warn("document_delete_denied",
			zap.String("document_id", id),
			zap.String("user_id", actorID(actor)),
		)
		return nil, ErrPermissionDenied
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		s.log.Error("document_payload_orphaned",
			zap.String("document_id", id),
			zap.String("storage_path", doc.StoragePath),
			zap.Error(err),
		)
	}

	s.log.Info("document_deleted",
		zap.String("document_id", id),
		zap.String("user_id", actorID(actor)),
	)
	return doc, nil
}

func (s *documentService) Download(ctx context.Context, id string) (*Download, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rc, info, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.log.Error("document_payload_missing",
				zap.String("document_id", id),
				zap.String("storage_path", doc.StoragePath),
			)
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "read from storage", Err: err}
	}
	size := info.Size
	if size <= 0 {
		size = -1
	}
	return &Download{Document: doc, Content: rc, Size: size}, nil
}

func actorID(a *model.Actor) string {
	if a == nil {
		return ""
	}
	return a.UserID
}
