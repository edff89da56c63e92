package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Slot API",
        "description": "Exam slot generation, room and proctor assignment",
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
        {"name": "ExamSlots", "description": "Exam slot generation and lifecycle"},
        {"name": "Assignments", "description": "Proctor and grader assignment"}
    ],
    "paths": {
        "/exam-slots/generate": {
            "post": {
                "tags": ["ExamSlots"],
                "summary": "Generate exam slot proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateExamSlotsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Proposal", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown student or room", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Insufficient capacity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-slots": {
            "get": {
                "tags": ["ExamSlots"],
                "summary": "List exam slots",
                "parameters": [
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "academicYear", "in": "query", "type": "string"},
                    {"name": "examType", "in": "query", "type": "string", "enum": ["MIDTERM", "FINAL", "MAKEUP"]},
                    {"name": "status", "in": "query", "type": "string", "enum": ["UNASSIGNED", "UNOPENED", "OPEN", "CLOSED"]},
                    {"name": "dateFrom", "in": "query", "type": "string", "format": "date"},
                    {"name": "dateTo", "in": "query", "type": "string", "format": "date"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ExamSlots"],
                "summary": "Save reviewed exam slots",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveExamSlotsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Room conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Proposal expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Insufficient capacity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-slots/{id}": {
            "get": {
                "tags": ["ExamSlots"],
                "summary": "Get exam slot with rooms and rosters",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["ExamSlots"],
                "summary": "Delete an unassigned exam slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Slot already has an exam", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-slots/{id}/exam": {
            "put": {
                "tags": ["ExamSlots"],
                "summary": "Attach a catalog exam to an exam slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttachExamRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-slots/{id}/status": {
            "patch": {
                "tags": ["ExamSlots"],
                "summary": "Advance exam slot status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Date mismatch or invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-slots/assignments": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign proctors and graders",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignTeachersRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Batch rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/exam-duties": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List a teacher's exam duties",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateExamSlotsRequest": {
            "type": "object",
            "required": ["subjectId", "semester", "academicYear", "examType", "studentCodes", "roomIds", "startDate", "startTime", "durationMinutes"],
            "properties": {
                "subjectId": {"type": "string"},
                "semester": {"type": "string"},
                "academicYear": {"type": "string"},
                "examType": {"type": "string", "enum": ["MIDTERM", "FINAL", "MAKEUP"]},
                "name": {"type": "string"},
                "studentCodes": {"type": "array", "items": {"type": "string"}},
                "roomIds": {"type": "array", "items": {"type": "string"}},
                "startDate": {"type": "string", "format": "date"},
                "startTime": {"type": "string", "example": "08:00"},
                "endDate": {"type": "string", "format": "date"},
                "durationMinutes": {"type": "integer"},
                "relaxationMinutes": {"type": "integer"},
                "dayStart": {"type": "string", "example": "07:00"},
                "dayEnd": {"type": "string", "example": "17:00"},
                "optimizedByRoom": {"type": "boolean"},
                "optimizedBySlotExam": {"type": "boolean"}
            }
        },
        "SaveExamSlotRoom": {
            "type": "object",
            "properties": {
                "roomId": {"type": "string"},
                "studentCodes": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SaveExamSlotItem": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "startAt": {"type": "string", "format": "date-time"},
                "endAt": {"type": "string", "format": "date-time"},
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/SaveExamSlotRoom"}}
            }
        },
        "SaveExamSlotsRequest": {
            "type": "object",
            "required": ["subjectId", "semester", "academicYear", "examType", "slots"],
            "properties": {
                "proposalId": {"type": "string"},
                "subjectId": {"type": "string"},
                "semester": {"type": "string"},
                "academicYear": {"type": "string"},
                "examType": {"type": "string", "enum": ["MIDTERM", "FINAL", "MAKEUP"]},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/SaveExamSlotItem"}}
            }
        },
        "AttachExamRequest": {
            "type": "object",
            "required": ["examId", "examType"],
            "properties": {
                "examId": {"type": "string"},
                "examType": {"type": "string", "enum": ["MIDTERM", "FINAL", "MAKEUP"]}
            }
        },
        "ChangeStatusRequest": {
            "type": "object",
            "required": ["examType"],
            "properties": {
                "examType": {"type": "string", "enum": ["MIDTERM", "FINAL", "MAKEUP"]}
            }
        },
        "TeacherAssignmentItem": {
            "type": "object",
            "properties": {
                "examSlotRoomId": {"type": "string"},
                "teacherId": {"type": "string"},
                "role": {"type": "string", "enum": ["PROCTOR", "GRADER"]}
            }
        },
        "AssignTeachersRequest": {
            "type": "object",
            "required": ["assignments"],
            "properties": {
                "isTheSame": {"type": "boolean"},
                "teacherId": {"type": "string"},
                "assignments": {"type": "array", "items": {"$ref": "#/definitions/TeacherAssignmentItem"}}
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
