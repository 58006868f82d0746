package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutor Schedule API",
        "description": "Weekly tutoring schedule with Google Sheets import",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Schedule", "description": "Weekly schedule slots"},
        {"name": "Schedule Import", "description": "Spreadsheet preview and booking"},
        {"name": "Name Aliases", "description": "Manual name resolutions"},
        {"name": "Metrics", "description": "Service counters"}
    ],
    "paths": {
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "List a week",
                "parameters": [
                    {"name": "weekStart", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "dayGroup", "in": "query", "type": "string", "enum": ["mwf", "tt"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Schedule"],
                "summary": "Book one slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScheduleSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/copy": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Copy a week onto an empty week",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CopyWeekRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Source week is empty", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Target week is not empty", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/{id}": {
            "delete": {
                "tags": ["Schedule"],
                "summary": "Delete a slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/import/preview": {
            "post": {
                "tags": ["Schedule Import"],
                "summary": "Preview a published sheet",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportSourceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload or unreachable sheet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Unrecognised layout", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/import/upload": {
            "post": {
                "tags": ["Schedule Import"],
                "summary": "Preview an uploaded .csv or .xlsx export",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "weekStart", "in": "formData", "required": true, "type": "string"},
                    {"name": "dayGroup", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unreadable file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Unrecognised layout", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/import/commit": {
            "post": {
                "tags": ["Schedule Import"],
                "summary": "Book the valid rows of a preview",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportCommitRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Nothing to book", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Proposal expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/import/confirm": {
            "post": {
                "tags": ["Schedule Import"],
                "summary": "Book caller-resolved slots",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmSlotsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/import/proposals/{id}/export": {
            "get": {
                "tags": ["Schedule Import"],
                "summary": "Download a preview report",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Report file"},
                    "404": {"description": "Proposal expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/name-aliases": {
            "get": {
                "tags": ["Name Aliases"],
                "summary": "List aliases",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string", "enum": ["teacher", "student", "group"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Name Aliases"],
                "summary": "Save aliases",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertNameAliasesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown entity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateScheduleSlotRequest": {
            "type": "object",
            "properties": {
                "teacherId": {"type": "string"},
                "studentId": {"type": "string"},
                "groupId": {"type": "string"},
                "dayOfWeek": {"type": "integer", "minimum": 1, "maximum": 7},
                "startTime": {"type": "string", "example": "09:00"},
                "weekStartDate": {"type": "string", "format": "date"},
                "lessonType": {"type": "string", "enum": ["INDIVIDUAL", "GROUP"]},
                "lessonCategory": {"type": "string"},
                "room": {"type": "string"}
            },
            "required": ["teacherId", "dayOfWeek", "startTime", "weekStartDate", "lessonType"]
        },
        "CopyWeekRequest": {
            "type": "object",
            "properties": {
                "fromWeek": {"type": "string", "format": "date"},
                "toWeek": {"type": "string", "format": "date"}
            },
            "required": ["fromWeek", "toWeek"]
        },
        "ImportSourceRequest": {
            "type": "object",
            "properties": {
                "sheetUrl": {"type": "string"},
                "weekStart": {"type": "string", "format": "date"},
                "dayGroup": {"type": "string", "enum": ["mwf", "tt"]}
            },
            "required": ["sheetUrl", "weekStart"]
        },
        "Override": {
            "type": "object",
            "properties": {
                "teacherId": {"type": "string"},
                "studentIds": {"type": "array", "items": {"type": "string"}},
                "groupId": {"type": "string"}
            }
        },
        "ImportCommitRequest": {
            "type": "object",
            "properties": {
                "proposalId": {"type": "string"},
                "sheetUrl": {"type": "string"},
                "weekStart": {"type": "string", "format": "date"},
                "dayGroup": {"type": "string", "enum": ["mwf", "tt"]},
                "rowKeys": {"type": "array", "items": {"type": "string"}},
                "overrides": {"type": "object", "additionalProperties": {"$ref": "#/definitions/Override"}},
                "persistAliases": {"type": "boolean"}
            }
        },
        "ConfirmSlot": {
            "type": "object",
            "properties": {
                "rowKey": {"type": "string"},
                "teacherId": {"type": "string"},
                "studentId": {"type": "string"},
                "groupId": {"type": "string"},
                "startTime": {"type": "string"},
                "dayGroup": {"type": "string", "enum": ["mwf", "tt"]},
                "weekdays": {"type": "array", "items": {"type": "integer"}},
                "lessonType": {"type": "string", "enum": ["INDIVIDUAL", "GROUP"]},
                "lessonCategory": {"type": "string"},
                "room": {"type": "string"}
            },
            "required": ["teacherId", "startTime"]
        },
        "ConfirmSlotsRequest": {
            "type": "object",
            "properties": {
                "weekStart": {"type": "string", "format": "date"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/ConfirmSlot"}}
            },
            "required": ["weekStart", "slots"]
        },
        "NameAliasInput": {
            "type": "object",
            "properties": {
                "alias": {"type": "string"},
                "type": {"type": "string", "enum": ["teacher", "student", "group"]},
                "entityId": {"type": "string"}
            },
            "required": ["alias", "type", "entityId"]
        },
        "UpsertNameAliasesRequest": {
            "type": "object",
            "properties": {
                "aliases": {"type": "array", "items": {"$ref": "#/definitions/NameAliasInput"}}
            },
            "required": ["aliases"]
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
