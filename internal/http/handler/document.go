package handler

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docsmanager/internal/http/middleware"
	"docsmanager/internal/model"
	"docsmanager/internal/service"
	"docsmanager/internal/validation"
)

// documentID validates the :id path parameter.
func documentID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func invalidID(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
}

// ListDocuments lists documents, newest first.
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Param    search query string false "case-insensitive title filter"
// @Param    limit  query int    false "page size (default 50, max 200)"
// @Param    offset query int    false "rows to skip"
// @Success  200 {object} documentListResponse
// @Failure  400 {object} errorPayload
// @Router   /documents/ [get]
func ListDocuments(docs service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := queryInt(c, "limit")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := queryInt(c, "offset")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		search := c.Query("search")

		res, err := docs.List(c.UserContext(), service.ListQuery{Search: search, Limit: limit, Offset: offset})
		if err != nil {
			return respondError(c, log, err)
		}

		actor := middleware.ActorFromCtx(c)
		out := documentListResponse{
			Data:   make([]documentView, 0, len(res.Items)),
			Total:  res.Total,
			Search: search,
		}
		for i := range res.Items {
			out.Data = append(out.Data, newDocumentView(&res.Items[i], actor))
		}
		return c.JSON(out)
	}
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// UploadFormDescriptor describes the upload form and its limits.
//
// @Summary  Upload form descriptor
// @Tags     documents
// @Produce  json
// @Success  200 {object} formDescriptor
// @Router   /documents/upload/ [get]
func UploadFormDescriptor(docs service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rules := docs.Rules()
		return c.JSON(formDescriptor{
			Fields: []formField{
				{Name: "title", Type: "text", Required: true, MaxLength: 255},
				{Name: "description", Type: "textarea", MaxLength: 10000},
				{Name: "file", Type: "file", Required: true},
			},
			MaxSizeBytes:      rules.MaxSize,
			MaxSizeDisplay:    validation.FormatMB(rules.MaxSize),
			AllowedExtensions: rules.AllowedExtensions(),
		})
	}
}

// UploadDocument stores a new document (multipart/form-data: title, description, file).
//
// @Summary  Upload a document
// @Tags     documents
// @Accept   mpfd
// @Produce  json
// @Param    title       formData string true  "title"
// @Param    description formData string false "description"
// @Param    file        formData file   true  "payload"
// @Success  201 {object} messageResponse
// @Failure  400 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /documents/upload/ [post]
func UploadDocument(docs service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := service.UploadInput{
			Title:       c.FormValue("title"),
			Description: c.FormValue("description"),
		}

		// a missing file is reported by the service together with the other field errors
		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return respondError(c, log, &service.StorageError{Op: "open upload", Err: err})
			}
			defer f.Close()

			in.FileName = fh.Filename
			in.ContentType = fh.Header.Get(fiber.HeaderContentType)
			in.Size = fh.Size
			in.Content = f
		}

		actor := middleware.ActorFromCtx(c)
		doc, err := docs.Upload(c.UserContext(), actor, in)
		if err != nil {
			return respondError(c, log, err)
		}

		view := newDocumentView(doc, actor)
		return c.Status(fiber.StatusCreated).JSON(messageResponse{
			Message:  fmt.Sprintf("Document \"%s\" saved successfully! (%s)", doc.Title, doc.SizeDisplay()),
			Document: &view,
		})
	}
}

// GetDocument returns a document with its comments.
//
// @Summary  Document detail
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id"
// @Success  200 {object} documentDetailResponse
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id}/ [get]
func GetDocument(docs service.DocumentService, comments service.CommentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return invalidID(c)
		}

		doc, err := docs.Get(c.UserContext(), id)
		if err != nil {
			return respondError(c, log, err)
		}
		list, err := comments.ListFor(c.UserContext(), id)
		if err != nil {
			return respondError(c, log, err)
		}
		if list == nil {
			list = []model.Comment{}
		}

		return c.JSON(documentDetailResponse{
			Document: newDocumentView(doc, middleware.ActorFromCtx(c)),
			Comments: list,
		})
	}
}

// AddComment attaches a comment to a document.
//
// @Summary  Comment on a document
// @Tags     documents
// @Accept   x-www-form-urlencoded
// @Produce  json
// @Param    id   path     string true "document id"
// @Param    text formData string true "comment text"
// @Success  201 {object} messageResponse
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id}/ [post]
func AddComment(comments service.CommentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return invalidID(c)
		}

		var form validation.CommentForm
		if err := c.BodyParser(&form); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		}

		comment, err := comments.Add(c.UserContext(), middleware.ActorFromCtx(c), id, form.Text)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(messageResponse{
			Message: "Comment added successfully!",
			Comment: comment,
		})
	}
}

// EditDocument updates title and description.
//
// @Summary  Edit document details
// @Tags     documents
// @Accept   x-www-form-urlencoded
// @Produce  json
// @Param    id          path     string true  "document id"
// @Param    title       formData string true  "title"
// @Param    description formData string false "description"
// @Success  200 {object} messageResponse
// @Failure  403 {object} errorPayload
// @Router   /documents/{id}/edit/ [post]
func EditDocument(docs service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return invalidID(c)
		}

		var form validation.UploadForm
		if err := c.BodyParser(&form); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		}

		actor := middleware.ActorFromCtx(c)
		doc, err := docs.UpdateDetails(c.UserContext(), actor, id, form.Title, form.Description)
		if err != nil {
			return respondError(c, log, err)
		}

		view := newDocumentView(doc, actor)
		return c.JSON(messageResponse{
			Message:  fmt.Sprintf("Document \"%s\" updated successfully!", doc.Title),
			Document: &view,
		})
	}
}

// DeleteDocument removes a document, its comments and its payload.
//
// @Summary  Delete a document
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id"
// @Success  200 {object} messageResponse
// @Failure  403 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id}/delete/ [post]
func DeleteDocument(docs service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return invalidID(c)
		}

		doc, err := docs.Delete(c.UserContext(), middleware.ActorFromCtx(c), id)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(messageResponse{
			Message: fmt.Sprintf("Document \"%s\" deleted successfully!", doc.Title),
		})
	}
}

// DownloadDocument streams the stored payload as an attachment.
//
// @Summary  Download a document
// @Tags     documents
// @Produce  octet-stream
// @Param    id path string true "document id"
// @Success  200 {file} file
// @Failure  404 {object} errorPayload
// @Router   /documents/{id}/download/ [get]
func DownloadDocument(docs service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return invalidID(c)
		}

		dl, err := docs.Download(c.UserContext(), id)
		if err != nil {
			return respondError(c, log, err)
		}

		contentType := dl.Document.FileType
		if contentType == "" {
			contentType = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderContentDisposition, contentDisposition(dl.Document.FileName))

		// fasthttp closes the stream once the body has been written
		return c.SendStream(dl.Content, int(dl.Size))
	}
}
