package handler

import (
	"docsmanager/internal/model"
	"docsmanager/internal/policy"
)

// documentView is a document as rendered to a given actor.
type documentView struct {
	*model.Document
	SizeDisplay string `json:"size_display"`
	CanEdit     bool   `json:"can_edit"`
	CanDelete   bool   `json:"can_delete"`
}

func newDocumentView(d *model.Document, actor *model.Actor) documentView {
	return documentView{
		Document:    d,
		SizeDisplay: d.SizeDisplay(),
		CanEdit:     policy.CanEdit(actor, d),
		CanDelete:   policy.CanDelete(actor, d),
	}
}

type documentListResponse struct {
	Data   []documentView `json:"data"`
	Total  int            `json:"total"`
	Search string         `json:"search,omitempty"`
}

type documentDetailResponse struct {
	Document documentView    `json:"document"`
	Comments []model.Comment `json:"comments"`
}

type messageResponse struct {
	Message  string         `json:"message"`
	Document *documentView  `json:"document,omitempty"`
	Comment  *model.Comment `json:"comment,omitempty"`
}

// formField describes one input of a form descriptor.
type formField struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Required  bool   `json:"required"`
	MaxLength int    `json:"max_length,omitempty"`
}

type formDescriptor struct {
	Fields            []formField `json:"fields"`
	MaxSizeBytes      int64       `json:"max_size_bytes,omitempty"`
	MaxSizeDisplay    string      `json:"max_size_display,omitempty"`
	AllowedExtensions []string    `json:"allowed_extensions,omitempty"`
}
