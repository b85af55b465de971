package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Withdrawal API",
        "description": "Transcript-based eligibility checks for course withdrawal requests",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Registrar-office admin login"},
        {"name": "Withdrawals", "description": "Applicant-facing submission and lookup"},
        {"name": "Admin", "description": "Request review, decisions, exports, and reports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate admin",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/requests": {
            "post": {
                "tags": ["Withdrawals"],
                "summary": "Submit a withdrawal request",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "course_code", "in": "formData", "required": true, "type": "string"},
                    {"name": "course_name", "in": "formData", "type": "string"},
                    {"name": "semester", "in": "formData", "type": "string"},
                    {"name": "year", "in": "formData", "type": "string"},
                    {"name": "reason_type", "in": "formData", "type": "string"},
                    {"name": "reason", "in": "formData", "type": "string"},
                    {"name": "student_name", "in": "formData", "type": "string"},
                    {"name": "student_id", "in": "formData", "type": "string"},
                    {"name": "degree", "in": "formData", "type": "string"},
                    {"name": "selected_major", "in": "formData", "type": "string"},
                    {"name": "transcript", "in": "formData", "required": true, "type": "file"},
                    {"name": "supporting_doc", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate request"}
                }
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": ["Withdrawals"],
                "summary": "Look up a withdrawal request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/requests": {
            "get": {
                "tags": ["Admin"],
                "summary": "List withdrawal requests",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "major", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/requests/stats": {
            "get": {
                "tags": ["Admin"],
                "summary": "Request counters per workflow state",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/requests/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export the request register as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "major", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV payload"}
                }
            }
        },
        "/admin/requests/{id}": {
            "get": {
                "tags": ["Admin"],
                "summary": "Request detail with verdict breakdown",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/requests/{id}/status": {
            "patch": {
                "tags": ["Admin"],
                "summary": "Apply a registrar decision",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/requests/{id}/documents": {
            "get": {
                "tags": ["Admin"],
                "summary": "Issue a signed download link for a stored document",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "kind", "in": "query", "type": "string", "enum": ["transcript", "supporting"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/documents": {
            "get": {
                "tags": ["Admin"],
                "summary": "Download a document via signed token",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Document bytes"},
                    "403": {"description": "Invalid or expired link"}
                }
            }
        },
        "/admin/requests/{id}/report": {
            "post": {
                "tags": ["Admin"],
                "summary": "Queue an eligibility report PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/reports/{jobId}": {
            "get": {
                "tags": ["Admin"],
                "summary": "Poll a report job",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "jobId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/reports/{jobId}/download": {
            "get": {
                "tags": ["Admin"],
                "summary": "Download a finished report PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "jobId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF bytes"},
                    "404": {"description": "Not found"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "UpdateStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["pending", "approved", "rejected"]}
            },
            "required": ["status"]
        },
        "RuleCheck": {
            "type": "object",
            "properties": {
                "rule": {"type": "string"},
                "status": {"type": "string", "enum": ["pass", "fail", "warning"]},
                "detail": {"type": "string"}
            }
        },
        "TranscriptSnapshot": {
            "type": "object",
            "properties": {
                "student_name": {"type": "string"},
                "student_id": {"type": "string"},
                "major": {"type": "string"},
                "department": {"type": "string"},
                "degree": {"type": "string"},
                "gpa": {"type": "number"},
                "withdrawal_count": {"type": "integer"},
                "remaining_credits": {"type": "integer"},
                "is_first_year": {"type": "boolean"},
                "expected_graduate": {"type": "boolean"}
            }
        },
        "EligibilityResult": {
            "type": "object",
            "properties": {
                "eligible": {"type": "boolean"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "warnings": {"type": "array", "items": {"type": "string"}},
                "rules_checked": {"type": "array", "items": {"$ref": "#/definitions/RuleCheck"}},
                "transcript_data": {"$ref": "#/definitions/TranscriptSnapshot"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
