package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsmanager/internal/config"
)

type failingReader struct{ after int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.after <= 0 {
		return 0, errors.New("client went away")
	}
	n := min(len(p), r.after)
	for i := range n {
		p[i] = 'x'
	}
	r.after -= n
	return n, nil
}

func TestFilesystem_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	s := NewFilesystemFs(fsys)

	info, err := s.Put(ctx, "documents/abc.pdf", strings.NewReader("hello world"), PutObjectOptions{Size: -1, ContentType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, "documents/abc.pdf", info.Key)
	assert.Equal(t, int64(11), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)

	rc, got, err := s.Get(ctx, "documents/abc.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello world", string(body))
	assert.Equal(t, int64(11), got.Size)

	require.NoError(t, s.Delete(ctx, "documents/abc.pdf"))
	_, _, err = s.Get(ctx, "documents/abc.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// deleting again is not an error
	assert.NoError(t, s.Delete(ctx, "documents/abc.pdf"))
}

func TestFilesystem_PutFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	s := NewFilesystemFs(fsys)

	_, err := s.Put(ctx, "documents/broken.txt", &failingReader{after: 100}, PutObjectOptions{Size: -1})
	require.Error(t, err)

	exists, _ := afero.Exists(fsys, "documents/broken.txt")
	assert.False(t, exists)
	exists, _ = afero.Exists(fsys, "documents/broken.txt.part")
	assert.False(t, exists)
}

func TestFilesystem_ShortWrite(t *testing.T) {
	s := NewFilesystemFs(afero.NewMemMapFs())

	_, err := s.Put(context.Background(), "documents/a.txt", strings.NewReader("abc"), PutObjectOptions{Size: 10})
	assert.ErrorContains(t, err, "short write")
}

func TestFilesystem_RejectsEscapingKeys(t *testing.T) {
	s := NewFilesystemFs(afero.NewMemMapFs())
	ctx := context.Background()

	for _, key := range []string{"", "/", "../etc/passwd", "documents/../../x"} {
		_, err := s.Put(ctx, key, strings.NewReader("x"), PutObjectOptions{Size: -1})
		assert.Error(t, err, key)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &config.AppConfig{Storage: config.StorageConfig{Driver: "ftp"}}

	_, err := New(cfg, nil)
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestNew_Filesystem(t *testing.T) {
	cfg := &config.AppConfig{Storage: config.StorageConfig{Driver: config.StorageDriverFilesystem, Root: t.TempDir()}}

	s, err := New(cfg, nil)
	require.NoError(t, err)

	info, err := s.Put(context.Background(), "documents/x.txt", strings.NewReader("data"), PutObjectOptions{Size: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)
}
