package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mib = 1024 * 1024

var documentOnly = []string{"pdf", "doc", "docx", "txt", "xlsx", "csv"}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"notes.pdf":      "pdf",
		"REPORT.PDF":     "pdf",
		"archive.tar.gz": "gz",
		"README":         "",
		"trailing.":      "",
		"dir.v2/file":    "",
	}
	for name, want := range tests {
		assert.Equal(t, want, Extension(name), name)
	}
}

func TestNewFileRules_Normalizes(t *testing.T) {
	rules := NewFileRules(mib, []string{" .PDF", "txt", "", "Txt"})
	assert.Equal(t, []string{"pdf", "txt"}, rules.AllowedExtensions())
}

func TestFileRules_Check(t *testing.T) {
	rules := NewFileRules(50*mib, documentOnly)

	t.Run("accepts allowed file", func(t *testing.T) {
		assert.NoError(t, rules.Check("notes.pdf", 2*mib))
	})

	t.Run("accepts file exactly at the limit", func(t *testing.T) {
		assert.NoError(t, rules.Check("sheet.xlsx", 50*mib))
	})

	t.Run("rejects oversized file with size in message", func(t *testing.T) {
		err := rules.Check("big.pdf", 60*mib)

		var rej *Rejection
		require.True(t, errors.As(err, &rej))
		assert.Equal(t, KindTooLarge, rej.Kind)
		assert.Contains(t, rej.Message, "60.00MB")
		assert.Contains(t, rej.Message, "50.00MB")
	})

	t.Run("size is checked before extension", func(t *testing.T) {
		err := rules.Check("movie.mp4", 60*mib)

		var rej *Rejection
		require.True(t, errors.As(err, &rej))
		assert.Equal(t, KindTooLarge, rej.Kind)
	})

	t.Run("rejects extension outside allow-list", func(t *testing.T) {
		err := rules.Check("movie.mp4", 1024)

		var rej *Rejection
		require.True(t, errors.As(err, &rej))
		assert.Equal(t, KindDisallowedExtension, rej.Kind)
		assert.Equal(t, "mp4", rej.Extension)
		assert.Contains(t, rej.Message, `"mp4"`)
		assert.Contains(t, rej.Message, "csv, doc, docx, pdf, txt, xlsx")
	})

	t.Run("images only pass with the extended list", func(t *testing.T) {
		assert.Error(t, rules.Check("photo.png", 10))

		extended := NewFileRules(25*mib, append(append([]string{}, documentOnly...), "jpg", "jpeg", "png", "gif"))
		assert.NoError(t, extended.Check("photo.PNG", 10))
		assert.Error(t, extended.Check("scan.pdf", 26*mib))
	})

	t.Run("zero max disables size rule", func(t *testing.T) {
		unlimited := NewFileRules(0, documentOnly)
		assert.NoError(t, unlimited.Check("huge.pdf", 1<<40))
	})
}

func TestNewFileRules_DropsUnstorableExtensions(t *testing.T) {
	rules := NewFileRules(mib, []string{"pdf", "averyverylongext"})
	assert.Equal(t, []string{"pdf"}, rules.AllowedExtensions())
}

func TestCheckFileName(t *testing.T) {
	assert.Nil(t, CheckFileName("file", "notes.pdf"))
	assert.Nil(t, CheckFileName("file", strings.Repeat("é", 251)+".pdf"))

	fe := CheckFileName("file", strings.Repeat("a", 300)+".pdf")
	require.NotNil(t, fe)
	assert.Equal(t, "file", fe.Field)
	assert.Equal(t, "max", fe.Code)
	assert.Equal(t, "Ensure this filename has at most 255 characters (it has 304).", fe.Message)
}

func TestFormatMB(t *testing.T) {
	assert.Equal(t, "60.00MB", FormatMB(60*mib))
	assert.Equal(t, "0.50MB", FormatMB(mib/2))
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid upload form", func(t *testing.T) {
		f := UploadForm{Title: "Quarterly Report"}
		assert.Nil(t, ValidateStruct(f))
	})

	t.Run("missing title uses form field name", func(t *testing.T) {
		f := UploadForm{Title: "   "}
		f.Normalize()

		errs := ValidateStruct(f)
		require.Len(t, errs, 1)
		assert.Equal(t, "title", errs[0].Field)
		assert.Equal(t, "required", errs[0].Code)
		assert.Equal(t, "this field is required", errs[0].Message)
	})

	t.Run("too long title", func(t *testing.T) {
		errs := ValidateStruct(UploadForm{Title: strings.Repeat("a", 256)})
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, "at most 255")
	})

	t.Run("empty comment text", func(t *testing.T) {
		f := CommentForm{Text: "\n\t"}
		f.Normalize()

		errs := ValidateStruct(f)
		require.Len(t, errs, 1)
		assert.Equal(t, "text", errs[0].Field)
	})

	t.Run("user form collects every error", func(t *testing.T) {
		errs := ValidateStruct(UserForm{Username: "bad name!", Password: "short"})
		require.Len(t, errs, 2)
		assert.Equal(t, "username", errs[0].Field)
		assert.Equal(t, "username", errs[0].Code)
		assert.Equal(t, "password", errs[1].Field)
		assert.Equal(t, "min", errs[1].Code)
	})
}

func TestErrors(t *testing.T) {
	var errs Errors
	assert.NoError(t, errs.Err())

	errs.Add("title", "required", "this field is required")
	errs.AddRejection("file", &Rejection{Kind: KindTooLarge, Message: "File too large!"})

	err := errs.Err()
	require.Error(t, err)
	assert.Equal(t, "title: this field is required; file: File too large!", err.Error())

	var got Errors
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "TooLarge", got[1].Code)
}
