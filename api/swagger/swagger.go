package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Timetable API",
        "description": "Timetable generation, publishing and export for campus sections",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Timetable", "description": "Generation, coverage reports and timetable views"},
        {"name": "Notifications", "description": "In-app notifications of the caller"}
    ],
    "paths": {
        "/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Timetable grid",
                "parameters": [
                    {"name": "section", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Section not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Regenerate the whole timetable",
                "description": "ADMIN or SUPERADMIN. Replaces every entry in one transaction and returns the coverage report.",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CoverageEnvelope"}},
                    "409": {"description": "Another run holds the generation lock", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No classrooms or faculty available", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Scheduler disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/report": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Coverage report of the last run",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CoverageEnvelope"}},
                    "404": {"description": "No run yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/utilization": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Classroom and faculty utilization",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/sections/{id}/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Export a section timetable",
                "produces": ["application/pdf", "text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv", "xlsx"], "default": "pdf"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Section not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/publish": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Publish the current timetable",
                "description": "ADMIN or SUPERADMIN. Notifies every faculty member holding classes.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/PublishRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No faculty to notify", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/public": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Public timetable of one section",
                "description": "Read-only grid for students and guests. No token required.",
                "security": [],
                "parameters": [
                    {"name": "section", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing section", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Section not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/faculty/me": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Schedule and workload of the calling faculty member",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No faculty profile for this user", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/faculty/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Schedule and workload of one faculty member",
                "description": "ADMIN or SUPERADMIN.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Faculty member not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List my notifications",
                "description": "Newest first. Listing marks every notification read; meta.unread counts those that were unread.",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "PublishRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "maxLength": 120},
                "message": {"type": "string", "maxLength": 500}
            }
        },
        "SlotRef": {
            "type": "object",
            "properties": {
                "sectionId": {"type": "string"},
                "day": {"type": "string"},
                "timeSlotId": {"type": "string"},
                "startTime": {"type": "string"}
            }
        },
        "RuleViolation": {
            "type": "object",
            "properties": {
                "rule": {"type": "string"},
                "mandatory": {"type": "boolean"},
                "message": {"type": "string"},
                "entryIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CoverageReport": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["complete", "partial"]},
                "totalRequiredSlots": {"type": "integer"},
                "totalCreated": {"type": "integer"},
                "sectionCount": {"type": "integer"},
                "nonBreakSlotCount": {"type": "integer"},
                "assignments": {
                    "type": "object",
                    "properties": {
                        "primary": {"type": "integer"},
                        "relaxed": {"type": "integer"},
                        "override": {"type": "integer"},
                        "fixed": {"type": "integer"}
                    }
                },
                "unassigned": {"type": "array", "items": {"$ref": "#/definitions/SlotRef"}},
                "violations": {"type": "array", "items": {"$ref": "#/definitions/RuleViolation"}},
                "fallbackMode": {"type": "string"},
                "generatedBy": {"type": "string"},
                "generatedAt": {"type": "string", "format": "date-time"},
                "durationMs": {"type": "integer"}
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
                "meta": {"type": "object"}
            }
        },
        "CoverageEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/CoverageReport"},
                "error": {"$ref": "#/definitions/APIError"},
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
