package model

import "time"

// Comment is a text note attached to a document by a user.
type Comment struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username,omitempty"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}
