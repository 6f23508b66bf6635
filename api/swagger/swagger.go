package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Haybee Schedule Engine API",
        "description": "Individual-student schedule engine: week generation, conflict resolution, topic assignment, assessment windows",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Generator", "description": "Weekly schedule generation"},
        {"name": "Schedules", "description": "Schedule entry read path"},
        {"name": "Conflicts", "description": "Timetable conflict detection and resolution"},
        {"name": "Topics", "description": "Topic assignment and suggestions"},
        {"name": "Holidays", "description": "Public holiday calendar"},
        {"name": "Repair", "description": "Data reconciliation utility"},
        {"name": "Dashboard", "description": "Read-only projections and health"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/schedules/generate": {
            "post": {
                "tags": ["Generator"],
                "summary": "Generate a student's week",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateWeekRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/regenerate": {
            "post": {
                "tags": ["Generator"],
                "summary": "Rebuild a student's week, preserving completed entries",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateWeekRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/generate/batch": {
            "post": {
                "tags": ["Generator"],
                "summary": "Generate a week for many students",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchGenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/preview": {
            "get": {
                "tags": ["Generator"],
                "summary": "Preview a week without persisting",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "required": true},
                    {"name": "termId", "in": "query", "type": "string", "required": true},
                    {"name": "weekNumber", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Query schedule entries",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "termId", "in": "query", "type": "string"},
                    {"name": "weekNumber", "in": "query", "type": "integer"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/day": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Query schedule entries for one date",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/export": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Export a schedule as CSV or PDF",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/timetables/{timetableId}/conflicts": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "List a timetable's conflicts",
                "parameters": [
                    {"name": "timetableId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{timetableId}/conflicts/resolve": {
            "post": {
                "tags": ["Conflicts"],
                "summary": "Apply a resolution action",
                "parameters": [
                    {"name": "timetableId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveConflictRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Stale entry or overlap remains", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{timetableId}/entries/{entryId}/subject": {
            "put": {
                "tags": ["Conflicts"],
                "summary": "Bind a timetable entry to a subject",
                "parameters": [
                    {"name": "timetableId", "in": "path", "type": "string", "required": true},
                    {"name": "entryId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSubjectMappingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Stale entry", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/topics/pending": {
            "get": {
                "tags": ["Topics"],
                "summary": "List entries awaiting a topic",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "weekNumber", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/topics/suggestions/{entryId}": {
            "get": {
                "tags": ["Topics"],
                "summary": "Score candidate topics for an entry",
                "parameters": [
                    {"name": "entryId", "in": "path", "type": "string", "required": true},
                    {"name": "q", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/topics/assign": {
            "post": {
                "tags": ["Topics"],
                "summary": "Assign a topic to an entry",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignTopicRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/topics/assign/bulk": {
            "post": {
                "tags": ["Topics"],
                "summary": "Assign one topic to many entries",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAssignTopicRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/topics/assign/quick": {
            "post": {
                "tags": ["Topics"],
                "summary": "Commit the top suggestion",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QuickAssignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/holidays": {
            "get": {
                "tags": ["Holidays"],
                "summary": "List public holidays",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Holidays"],
                "summary": "Register a public holiday",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateHolidayRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/holidays/{id}": {
            "put": {
                "tags": ["Holidays"],
                "summary": "Modify a holiday",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateHolidayRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Holidays"],
                "summary": "Remove a holiday",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/holidays/check": {
            "get": {
                "tags": ["Holidays"],
                "summary": "Check whether a date is a school day",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/holidays/impact": {
            "get": {
                "tags": ["Holidays"],
                "summary": "Reschedule impact for a term week",
                "parameters": [
                    {"name": "termId", "in": "query", "type": "string", "required": true},
                    {"name": "weekNumber", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/repair": {
            "post": {
                "tags": ["Repair"],
                "summary": "Scan and repair inconsistent data",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RepairRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Aggregate schedule statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/system": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "System metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateWeekRequest": {
            "type": "object",
            "required": ["studentId", "termId", "weekNumber"],
            "properties": {
                "studentId": {"type": "string"},
                "termId": {"type": "string"},
                "weekNumber": {"type": "integer"},
                "forceRegenerate": {"type": "boolean"}
            }
        },
        "BatchGenerateRequest": {
            "type": "object",
            "required": ["studentIds", "termId", "weekNumber"],
            "properties": {
                "studentIds": {"type": "array", "items": {"type": "string"}},
                "termId": {"type": "string"},
                "weekNumber": {"type": "integer"},
                "forceRegenerate": {"type": "boolean"}
            }
        },
        "ResolveConflictRequest": {
            "type": "object",
            "required": ["action", "firstEntryId"],
            "properties": {
                "action": {"type": "string", "enum": ["KEEP_FIRST", "KEEP_SECOND", "EDIT_TIME", "MERGE_PERIODS", "SPLIT_PERIOD"]},
                "firstEntryId": {"type": "string"},
                "secondEntryId": {"type": "string"},
                "targetEntryId": {"type": "string"},
                "newStartTime": {"type": "string"},
                "newEndTime": {"type": "string"},
                "splitTime": {"type": "string"}
            }
        },
        "UpdateSubjectMappingRequest": {
            "type": "object",
            "required": ["subjectId"],
            "properties": {
                "subjectId": {"type": "string"},
                "mappingConfidence": {"type": "number"}
            }
        },
        "AssignTopicRequest": {
            "type": "object",
            "required": ["scheduleEntryId", "topicId"],
            "properties": {
                "scheduleEntryId": {"type": "string"},
                "topicId": {"type": "string"}
            }
        },
        "BulkAssignTopicRequest": {
            "type": "object",
            "required": ["scheduleEntryIds", "topicId"],
            "properties": {
                "scheduleEntryIds": {"type": "array", "items": {"type": "string"}},
                "topicId": {"type": "string"}
            }
        },
        "QuickAssignRequest": {
            "type": "object",
            "required": ["scheduleEntryId"],
            "properties": {
                "scheduleEntryId": {"type": "string"}
            }
        },
        "CreateHolidayRequest": {
            "type": "object",
            "required": ["date", "name"],
            "properties": {
                "date": {"type": "string", "format": "date-time"},
                "name": {"type": "string"},
                "isSchoolClosed": {"type": "boolean"}
            }
        },
        "RepairRequest": {
            "type": "object",
            "properties": {
                "dryRun": {"type": "boolean"}
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
