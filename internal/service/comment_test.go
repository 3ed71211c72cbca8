package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"docsmanager/internal/model"
	repoMocks "docsmanager/internal/repository/mocks"
	"docsmanager/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCommentService_Add(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		actor      *model.Actor
		docID      string
		text       string
		setupMocks func(mDocs *repoMocks.MockDocumentRepository, mComments *repoMocks.MockCommentRepository)
		wantErr    error
	}{
		{
			name:  "happy path",
			actor: stranger,
			docID: "doc-1",
			text:  "  Looks good  ",
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mComments *repoMocks.MockCommentRepository) {
				mDocs.On("FindByID", ctx, "doc-1").Return(ownedDoc("doc-1"), nil)
				mComments.On("Create", ctx, &model.Comment{DocumentID: "doc-1", AuthorID: "user-2", Text: "Looks good"}).
					Return(&model.Comment{ID: "c-1", DocumentID: "doc-1", Text: "Looks good"}, nil)
			},
		},
		{
			name:       "anonymous",
			docID:      "doc-1",
			text:       "hi",
			setupMocks: func(*repoMocks.MockDocumentRepository, *repoMocks.MockCommentRepository) {},
			wantErr:    ErrUnauthenticated,
		},
		{
			name:  "unknown document",
			actor: owner,
			docID: "missing",
			text:  "hi",
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mComments *repoMocks.MockCommentRepository) {
				mDocs.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:  "document deleted before insert",
			actor: owner,
			docID: "doc-1",
			text:  "hi",
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mComments *repoMocks.MockCommentRepository) {
				mDocs.On("FindByID", ctx, "doc-1").Return(ownedDoc("doc-1"), nil)
				mComments.On("Create", ctx, mock.Anything).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:  "repository error",
			actor: owner,
			docID: "doc-1",
			text:  "hi",
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mComments *repoMocks.MockCommentRepository) {
				mDocs.On("FindByID", ctx, "doc-1").Return(ownedDoc("doc-1"), nil)
				mComments.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mDocs := new(repoMocks.MockDocumentRepository)
			mComments := new(repoMocks.MockCommentRepository)
			svc := NewCommentService(mDocs, mComments)

			tt.setupMocks(mDocs, mComments)

			c, err := svc.Add(ctx, tt.actor, tt.docID, tt.text)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrUnauthenticated) || errors.Is(tt.wantErr, ErrNotFound) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.EqualError(t, err, tt.wantErr.Error())
				}
				assert.Nil(t, c)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "c-1", c.ID)
			}
			mDocs.AssertExpectations(t)
			mComments.AssertExpectations(t)
		})
	}
}

func TestCommentService_Add_EmptyText(t *testing.T) {
	mDocs := new(repoMocks.MockDocumentRepository)
	mComments := new(repoMocks.MockCommentRepository)
	svc := NewCommentService(mDocs, mComments)

	_, err := svc.Add(context.Background(), owner, "doc-1", " \n ")

	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "text", errs[0].Field)
	mDocs.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	mComments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCommentService_ListFor(t *testing.T) {
	ctx := context.Background()
	mComments := new(repoMocks.MockCommentRepository)
	svc := NewCommentService(nil, mComments)

	mComments.On("ListByDocument", ctx, "doc-1").
		Return([]model.Comment{{ID: "c-2"}, {ID: "c-1"}}, nil)

	comments, err := svc.ListFor(ctx, "doc-1")

	require.NoError(t, err)
	assert.Len(t, comments, 2)

	_, err = svc.ListFor(ctx, "")
	assert.ErrorIs(t, err, ErrIDRequired)
}
