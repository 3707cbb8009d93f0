package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "StudyHub API",
        "description": "Academic resource portal: faceted resource search, curriculum and admin console.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Catalog", "description": "Facet options for the search page"},
        {"name": "Resources", "description": "Resource search, upload and download"},
        {"name": "Subjects", "description": "Curriculum management and syllabus export"},
        {"name": "Roles", "description": "Role whitelist"},
        {"name": "Profile", "description": "Academic defaults of the signed in user"},
        {"name": "Listings", "description": "Projects and hackathons"},
        {"name": "System", "description": "Operational endpoints"}
    ],
    "paths": {
        "/catalog": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Facet option catalog",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/filters/subjects": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Subject dropdown options",
                "description": "A failing store yields an empty list with meta.degraded=true.",
                "parameters": [
                    {"name": "regulation", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "semester", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/resources/search": {
            "get": {
                "tags": ["Resources"],
                "summary": "Search resources",
                "description": "Faceted search. A failing store yields an empty page with meta.degraded=true.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "regulation", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "semester", "in": "query", "type": "integer"},
                    {"name": "branch", "in": "query", "type": "string"},
                    {"name": "subjectCode", "in": "query", "type": "string"},
                    {"name": "unit", "in": "query", "type": "string"},
                    {"name": "documentType", "in": "query", "type": "string"},
                    {"name": "fileType", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "default": "uploadedAt_desc"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"},
                    {"name": "seq", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/SearchEnvelope"}}}
            }
        },
        "/resources/search/live": {
            "get": {
                "tags": ["Resources"],
                "summary": "Live search websocket",
                "description": "Send LiveSearchMessage frames; only the reply to the latest message is delivered.",
                "parameters": [{"name": "access_token", "in": "query", "type": "string"}],
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        },
        "/resources": {
            "post": {
                "tags": ["Resources"],
                "summary": "Upload resource",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "title", "in": "formData", "type": "string", "required": true},
                    {"name": "description", "in": "formData", "type": "string"},
                    {"name": "tags", "in": "formData", "type": "string"},
                    {"name": "regulation", "in": "formData", "type": "string", "required": true},
                    {"name": "year", "in": "formData", "type": "integer", "required": true},
                    {"name": "semester", "in": "formData", "type": "integer", "required": true},
                    {"name": "branch", "in": "formData", "type": "string", "required": true},
                    {"name": "subjectCode", "in": "formData", "type": "string", "required": true},
                    {"name": "documentType", "in": "formData", "type": "string", "required": true},
                    {"name": "unit", "in": "formData", "type": "string", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/resources/{id}": {
            "get": {
                "tags": ["Resources"],
                "summary": "Get resource",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Resources"],
                "summary": "Delete resource",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/resources/{id}/download": {
            "get": {
                "tags": ["Resources"],
                "summary": "Download resource",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "redirect", "in": "query", "type": "boolean", "default": true}
                ],
                "responses": {
                    "200": {"description": "Link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "302": {"description": "Redirect to the file"}
                }
            }
        },
        "/files/{token}": {
            "get": {
                "tags": ["Resources"],
                "summary": "Download a stored file through a signed token",
                "parameters": [{"name": "token", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "File"}, "403": {"description": "Invalid or expired link"}}
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "parameters": [
                    {"name": "regulation", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "semester", "in": "query", "type": "integer"},
                    {"name": "branch", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Subject exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{id}": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Get subject",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Subjects"],
                "summary": "Update subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete subject",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "No Content"}, "409": {"description": "Subject has resources"}}
            }
        },
        "/subjects/{id}/syllabus": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Export syllabus",
                "produces": ["application/pdf", "text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"], "default": "pdf"}
                ],
                "responses": {"200": {"description": "Attachment"}}
            }
        },
        "/subjects/extract": {
            "post": {
                "tags": ["Subjects"],
                "summary": "Extract syllabus units from a PDF",
                "description": "Only available when ENABLE_AI_EXTRACTION is set. Nothing is saved.",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [{"name": "file", "in": "formData", "type": "file", "required": true}],
                "responses": {
                    "200": {"description": "Draft", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Extraction failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/roles": {
            "get": {
                "tags": ["Roles"],
                "summary": "List role grants",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Roles"],
                "summary": "Grant a role",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GrantRoleRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/roles/{email}": {
            "delete": {
                "tags": ["Roles"],
                "summary": "Revoke a role grant",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "email", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/me/profile": {
            "get": {
                "tags": ["Profile"],
                "summary": "Current user's profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Profile"],
                "summary": "Update current user's profile",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/listings": {
            "get": {
                "tags": ["Listings"],
                "summary": "List projects and hackathons",
                "parameters": [
                    {"name": "kind", "in": "query", "type": "string", "enum": ["PROJECT", "HACKATHON"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Listings"],
                "summary": "Create listing",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateListingRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/listings/{id}": {
            "delete": {
                "tags": ["Listings"],
                "summary": "Delete listing",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/admin/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Process metrics summary",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "Resource": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "regulation": {"type": "string"},
                "year": {"type": "integer"},
                "semester": {"type": "integer"},
                "branch": {"type": "string"},
                "subjectCode": {"type": "string"},
                "documentType": {"type": "string"},
                "unit": {"type": "string"},
                "fileType": {"type": "string"},
                "mimeType": {"type": "string"},
                "fileSize": {"type": "integer"},
                "url": {"type": "string"},
                "fileName": {"type": "string"},
                "uploadedBy": {"type": "string"},
                "uploadedAt": {"type": "string"}
            }
        },
        "SearchResult": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/Resource"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "hasMore": {"type": "boolean"}
            }
        },
        "SearchEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/SearchResult"},
                "meta": {"type": "object"}
            }
        },
        "Unit": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "topics": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SubjectRequest": {
            "type": "object",
            "required": ["code", "name", "regulation", "year", "semester", "branch"],
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "regulation": {"type": "string"},
                "year": {"type": "integer"},
                "semester": {"type": "integer"},
                "branch": {"type": "string"},
                "units": {"type": "object", "additionalProperties": {"$ref": "#/definitions/Unit"}},
                "textbooks": {"type": "array", "items": {"type": "string"}},
                "references": {"type": "array", "items": {"type": "string"}}
            }
        },
        "GrantRoleRequest": {
            "type": "object",
            "required": ["email", "role"],
            "properties": {
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "STUDENT"]}
            }
        },
        "UpdateProfileRequest": {
            "type": "object",
            "required": ["display_name"],
            "properties": {
                "display_name": {"type": "string"},
                "branch": {"type": "string"},
                "regulation": {"type": "string"},
                "year": {"type": "integer"},
                "semester": {"type": "integer"}
            }
        },
        "CreateListingRequest": {
            "type": "object",
            "required": ["kind", "title"],
            "properties": {
                "kind": {"type": "string", "enum": ["PROJECT", "HACKATHON"]},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "link": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "starts_at": {"type": "string"},
                "ends_at": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "has_more": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
