package postgres

import (
	"context"
	"testing"
	"time"

	"docsmanager/internal/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var commentRowColumns = []string{"id", "document_id", "author_id", "username", "text", "created_at"}

func TestCommentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCommentPostgres(db)
	ctx := context.Background()
	in := &model.Comment{DocumentID: "doc-1", AuthorID: "user-1", Text: "Looks good"}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO comments").
			WithArgs("doc-1", "user-1", "Looks good").
			WillReturnRows(sqlmock.NewRows(commentRowColumns).
				AddRow("c-1", "doc-1", "user-1", "alice", "Looks good", time.Now()))

		c, err := repo.Create(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, "c-1", c.ID)
		assert.Equal(t, "alice", c.AuthorUsername)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("document vanished", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO comments").
			WillReturnError(&pgconn.PgError{Code: "23503"})

		c, err := repo.Create(ctx, in)

		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, c)
	})
}

func TestCommentPostgres_ListByDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCommentPostgres(db)
	newer := time.Now()
	older := newer.Add(-time.Hour)

	mock.ExpectQuery(`FROM comments c JOIN users u ON u.id = c.author_id\s+WHERE c.document_id = \$1\s+ORDER BY c.created_at DESC`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(commentRowColumns).
			AddRow("c-2", "doc-1", "user-2", "bob", "second", newer).
			AddRow("c-1", "doc-1", "user-1", "alice", "first", older))

	comments, err := repo.ListByDocument(context.Background(), "doc-1")

	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c-2", comments[0].ID)
	assert.Equal(t, "bob", comments[0].AuthorUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}
