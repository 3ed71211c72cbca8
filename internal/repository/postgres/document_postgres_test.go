package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"docsmanager/internal/model"
	"docsmanager/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var documentRowColumns = []string{
	"id", "title", "description", "author_id", "username",
	"storage_path", "file_name", "file_size", "file_type", "file_extension",
	"uploaded_at", "updated_at",
}

func documentRow(id string, authorID any, username string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(documentRowColumns).
		AddRow(id, "Quarterly Report", "numbers", authorID, username,
			"documents/"+id+".pdf", "report.pdf", int64(2048), "application/pdf", "pdf",
			now, now)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	author := "user-1"
	doc := &model.Document{
		ID:            "doc-1",
		Title:         "Quarterly Report",
		Description:   "numbers",
		AuthorID:      &author,
		StoragePath:   "documents/doc-1.pdf",
		FileName:      "report.pdf",
		FileSize:      2048,
		FileType:      "application/pdf",
		FileExtension: "pdf",
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.ID, doc.Title, doc.Description, author, doc.StoragePath,
				doc.FileName, doc.FileSize, doc.FileType, doc.FileExtension).
			WillReturnRows(documentRow("doc-1", "user-1", "alice"))

		result, err := repo.Create(ctx, doc)

		require.NoError(t, err)
		assert.Equal(t, "doc-1", result.ID)
		assert.Equal(t, "alice", result.AuthorUsername)
		require.NotNil(t, result.AuthorID)
		assert.Equal(t, "user-1", *result.AuthorID)
		assert.Equal(t, "documents/doc-1.pdf", result.StoragePath)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate storage path", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WillReturnError(&pgconn.PgError{Code: "23505"})

		result, err := repo.Create(ctx, doc)

		assert.ErrorIs(t, err, repository.ErrConflict)
		assert.Nil(t, result)
	})
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM documents d LEFT JOIN users u ON u.id = d.author_id\s+WHERE d.id = \$1`).
			WithArgs("test-id").
			WillReturnRows(documentRow("test-id", "user-1", "alice"))

		doc, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, "test-id", doc.ID)
		assert.Equal(t, "alice", doc.AuthorUsername)
	})

	t.Run("without author", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs("legacy").
			WillReturnRows(documentRow("legacy", nil, ""))

		doc, err := repo.FindByID(ctx, "legacy")

		require.NoError(t, err)
		assert.Nil(t, doc.AuthorID)
		assert.Empty(t, doc.AuthorUsername)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "missing")

		assert.Error(t, err)
		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM documents d\s*$`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery(`SELECT (.+) FROM documents d (.+) ORDER BY d.uploaded_at DESC, d.id DESC\s+LIMIT \$1 OFFSET \$2`).
			WithArgs(10, 0).
			WillReturnRows(documentRow("test-id", "user-1", "alice"))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("search escapes wildcards", func(t *testing.T) {
		pattern := `%50\% off\_sale%`
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM documents d WHERE d.title ILIKE $1 ESCAPE '\'`)).
			WithArgs(pattern).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery(`WHERE d.title ILIKE \$1 (.+) LIMIT \$2 OFFSET \$3`).
			WithArgs(pattern, 50, 0).
			WillReturnRows(sqlmock.NewRows(documentRowColumns))

		res, err := repo.List(ctx, repository.PageQuery{Search: "50% off_sale", Limit: 50})

		require.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.NotNil(t, res.Items)
		assert.Empty(t, res.Items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT`).WillReturnError(errors.New("db down"))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10})

		assert.Error(t, err)
		assert.Nil(t, res)
	})
}

func TestDocumentPostgres_UpdateDetails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	mock.ExpectQuery(`UPDATE documents SET title = \$2, description = \$3, updated_at = now\(\)`).
		WithArgs("doc-1", "New title", "").
		WillReturnRows(documentRow("doc-1", "user-1", "alice"))

	doc, err := repo.UpdateDetails(context.Background(), "doc-1", "New title", "")

	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes comments and document in one transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
		}
		defer db.Close()

		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE document_id = $1")).
			WithArgs("test-id").
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE id = $1")).
			WithArgs("test-id").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.Delete(ctx, "test-id")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing document rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM comments").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM documents").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.Delete(ctx, "missing")

		assert.True(t, IsNoRowsError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("comment delete failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM comments").WillReturnError(errors.New("lock timeout"))
		mock.ExpectRollback()

		err = repo.Delete(ctx, "test-id")

		assert.ErrorContains(t, err, "lock timeout")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%Report%", containsPattern("Report"))
	assert.Equal(t, `%a\\b\%c\_d%`, containsPattern(`a\b%c_d`))
}
