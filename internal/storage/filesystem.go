package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// filesystemStorage keeps payloads as files below a root directory.
// Keys map to relative paths, e.g. documents/<uuid>.pdf.
type filesystemStorage struct {
	fs afero.Fs
}

// NewFilesystem creates a Storage rooted at root on the local disk, creating the directory if needed.
func NewFilesystem(root string) (Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return NewFilesystemFs(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

// NewFilesystemFs creates a Storage on an arbitrary afero filesystem.
func NewFilesystemFs(fsys afero.Fs) Storage {
	return &filesystemStorage{fs: fsys}
}

// cleanKey rejects keys that would escape the root.
func cleanKey(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return strings.TrimPrefix(clean, "/"), nil
}

// Put writes to a temporary file next to the target and renames it into place,
// so a failed write never leaves a partial payload under key.
func (s *filesystemStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	name, err := cleanKey(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	if err := s.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("create directory: %w", err)
	}

	tmp := name + ".part"
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create file: %w", err)
	}

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil && opt.Size >= 0 && n != opt.Size {
		copyErr = fmt.Errorf("short write: wrote %d of %d bytes", n, opt.Size)
	}
	if copyErr != nil {
		_ = s.fs.Remove(tmp)
		return ObjectInfo{}, fmt.Errorf("write file: %w", copyErr)
	}

	if err := s.fs.Rename(tmp, name); err != nil {
		_ = s.fs.Remove(tmp)
		return ObjectInfo{}, fmt.Errorf("commit file: %w", err)
	}

	info := ObjectInfo{
		Key:         name,
		Size:        n,
		ContentType: opt.ContentType,
		Metadata:    opt.Metadata,
	}
	if st, err := s.fs.Stat(name); err == nil {
		info.LastModified = st.ModTime()
	}
	return info, nil
}

func (s *filesystemStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	name, err := cleanKey(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := s.fs.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}
	return f, ObjectInfo{Key: name, Size: st.Size(), LastModified: st.ModTime()}, nil
}

func (s *filesystemStorage) Delete(ctx context.Context, key string) error {
	name, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
