// Package docs registers the OpenAPI description served by the swagger UI at /swagger/*.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/documents/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List documents",
                "parameters": [
                    {"type": "string", "description": "case-insensitive title filter", "name": "search", "in": "query"},
                    {"type": "integer", "description": "page size (default 50, max 200)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "rows to skip", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.documentListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/documents/upload/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Upload form descriptor",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.formDescriptor"}}
                }
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Upload a document",
                "parameters": [
                    {"type": "string", "description": "title", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "description": "description", "name": "description", "in": "formData"},
                    {"type": "file", "description": "payload", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/documents/{id}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Document detail",
                "parameters": [
                    {"type": "string", "description": "document id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.documentDetailResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Comment on a document",
                "parameters": [
                    {"type": "string", "description": "document id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "comment text", "name": "text", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/documents/{id}/edit/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Edit document details",
                "parameters": [
                    {"type": "string", "description": "document id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "title", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "description": "description", "name": "description", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/documents/{id}/delete/": {
            "post": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Delete a document",
                "parameters": [
                    {"type": "string", "description": "document id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/documents/{id}/download/": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["documents"],
                "summary": "Download a document",
                "parameters": [
                    {"type": "string", "description": "document id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/users/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Login form descriptor",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.formDescriptor"}}
                }
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Log in",
                "parameters": [
                    {"type": "string", "description": "username", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "password", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/users/logout/": {
            "post": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Log out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.documentDetailResponse": {
            "type": "object",
            "properties": {
                "comments": {"type": "array", "items": {"$ref": "#/definitions/model.Comment"}},
                "document": {"$ref": "#/definitions/handler.documentView"}
            }
        },
        "handler.documentListResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/handler.documentView"}},
                "search": {"type": "string"},
                "total": {"type": "integer"}
            }
        },
        "handler.documentView": {
            "type": "object",
            "properties": {
                "author_id": {"type": "string"},
                "author_username": {"type": "string"},
                "can_delete": {"type": "boolean"},
                "can_edit": {"type": "boolean"},
                "description": {"type": "string"},
                "file_extension": {"type": "string"},
                "file_name": {"type": "string"},
                "file_size": {"type": "integer"},
                "file_type": {"type": "string"},
                "id": {"type": "string"},
                "size_display": {"type": "string"},
                "title": {"type": "string"},
                "updated_at": {"type": "string"},
                "uploaded_at": {"type": "string"}
            }
        },
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/validation.FieldError"}},
                "message": {"type": "string"}
            }
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.errorEnvelope"},
                "request_id": {"type": "string"}
            }
        },
        "handler.formDescriptor": {
            "type": "object",
            "properties": {
                "allowed_extensions": {"type": "array", "items": {"type": "string"}},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/handler.formField"}},
                "max_size_bytes": {"type": "integer"},
                "max_size_display": {"type": "string"}
            }
        },
        "handler.formField": {
            "type": "object",
            "properties": {
                "max_length": {"type": "integer"},
                "name": {"type": "string"},
                "required": {"type": "boolean"},
                "type": {"type": "string"}
            }
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {
                "expires_at": {"type": "string"},
                "message": {"type": "string"},
                "token": {"type": "string"}
            }
        },
        "handler.messageResponse": {
            "type": "object",
            "properties": {
                "comment": {"$ref": "#/definitions/model.Comment"},
                "document": {"$ref": "#/definitions/handler.documentView"},
                "message": {"type": "string"}
            }
        },
        "model.Comment": {
            "type": "object",
            "properties": {
                "author_id": {"type": "string"},
                "author_username": {"type": "string"},
                "created_at": {"type": "string"},
                "document_id": {"type": "string"},
                "id": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "validation.FieldError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Document Manager API",
	Description:      "",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
