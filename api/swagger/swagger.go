package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Transcript Intake API",
        "description": "Student application intake: document upload to Drive and submission tracking in Sheets",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Submissions", "description": "Application intake"},
        {"name": "Auth", "description": "Staff authentication"},
        {"name": "Admin", "description": "Staff submission views"}
    ],
    "paths": {
        "/submissions": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Submit a student application",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "firstName", "in": "formData", "type": "string", "required": true},
                    {"name": "middleName", "in": "formData", "type": "string"},
                    {"name": "lastName", "in": "formData", "type": "string", "required": true},
                    {"name": "additionalName", "in": "formData", "type": "string"},
                    {"name": "studentType", "in": "formData", "type": "string", "required": true},
                    {"name": "degreeLevel", "in": "formData", "type": "string", "required": true},
                    {"name": "gender", "in": "formData", "type": "string", "required": true},
                    {"name": "birthDate", "in": "formData", "type": "string", "required": true},
                    {"name": "personalEmail", "in": "formData", "type": "string", "required": true},
                    {"name": "notes", "in": "formData", "type": "string"},
                    {"name": "nationalCountry", "in": "formData", "type": "string", "required": true},
                    {"name": "t1Country", "in": "formData", "type": "string", "required": true},
                    {"name": "t2Country", "in": "formData", "type": "string"},
                    {"name": "t3Country", "in": "formData", "type": "string"},
                    {"name": "t4Country", "in": "formData", "type": "string"},
                    {"name": "termsConditions", "in": "formData", "type": "string", "required": true},
                    {"name": "nationalID", "in": "formData", "type": "file", "required": true},
                    {"name": "transcript1", "in": "formData", "type": "file", "required": true},
                    {"name": "transcript2", "in": "formData", "type": "file"},
                    {"name": "transcript3", "in": "formData", "type": "file"},
                    {"name": "transcript4", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Submission accepted", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Validation failure", "schema": {"$ref": "#/definitions/Envelope"}},
                    "500": {"description": "Storage or recording failure", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "get": {
                "tags": ["Admin"],
                "summary": "List mirrored submissions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "degreeLevel", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/submissions/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export mirrored submissions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered export file"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate the staff account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "Envelope": {
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
