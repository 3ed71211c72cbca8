package model

import (
	"fmt"
	"time"
)

// Document is a stored file plus its metadata and ownership.
// AuthorID is nil for legacy records that were uploaded without an author.
type Document struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	AuthorID       *string   `json:"author_id"`
	AuthorUsername string    `json:"author_username,omitempty"`
	StoragePath    string    `json:"-"`
	FileName       string    `json:"file_name"`
	FileSize       int64     `json:"file_size"`
	FileType       string    `json:"file_type"`
	FileExtension  string    `json:"file_extension"`
	UploadedAt     time.Time `json:"uploaded_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasAuthor reports whether the document is owned by the given user.
func (d *Document) HasAuthor(userID string) bool {
	return d.AuthorID != nil && userID != "" && *d.AuthorID == userID
}

// SizeDisplay renders FileSize with two decimals in the largest unit below 1024, e.g. "1.23 MB".
func (d *Document) SizeDisplay() string {
	return FormatSize(d.FileSize)
}

// FormatSize renders a byte count the way SizeDisplay does.
func FormatSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f TB", size)
}
