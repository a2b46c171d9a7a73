package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EduPulse Insights API",
        "description": "Student performance analytics: grades, trends, peer comparison and recommendations",
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
        {"name": "Performance", "description": "Per student insights and grade tools"},
        {"name": "System", "description": "Operator endpoints"}
    ],
    "paths": {
        "/students/{id}/performance/summary": {
            "get": {
                "tags": ["Performance"],
                "summary": "Student performance summary",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "term_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No grades", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/performance/analysis": {
            "get": {
                "tags": ["Performance"],
                "summary": "Strengths, weaknesses, patterns and recommendations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "term_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/performance/comparison": {
            "get": {
                "tags": ["Performance"],
                "summary": "Compare a course average with the class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "course_id", "in": "query", "required": true, "type": "string"},
                    {"name": "term_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/performance/export": {
            "get": {
                "tags": ["Performance"],
                "summary": "Download the performance report",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"]},
                    {"name": "term_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report file", "schema": {"type": "file"}}
                }
            }
        },
        "/students/{id}/performance/cache": {
            "delete": {
                "tags": ["Performance"],
                "summary": "Drop cached insights for a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Invalidated"}
                }
            }
        },
        "/performance/analyze": {
            "post": {
                "tags": ["Performance"],
                "summary": "Analyse caller supplied grades",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AnalyzeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/performance/required-score": {
            "post": {
                "tags": ["Performance"],
                "summary": "Score needed on the next assessment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequiredScoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/performance/predict": {
            "post": {
                "tags": ["Performance"],
                "summary": "Project the final grade",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PredictRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/performance/grade-scale": {
            "get": {
                "tags": ["Performance"],
                "summary": "Convert a percentage to grade point and letter",
                "parameters": [
                    {"name": "percentage", "in": "query", "required": true, "type": "number"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Instrumentation snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GradeInput": {
            "type": "object",
            "required": ["score", "max_score"],
            "properties": {
                "score": {"type": "number"},
                "max_score": {"type": "number"},
                "date": {"type": "string"},
                "weight": {"type": "number"},
                "assessment_type": {"type": "string", "enum": ["quiz", "assignment", "exam", "project"]}
            }
        },
        "CourseInput": {
            "type": "object",
            "required": ["course_name"],
            "properties": {
                "course_id": {"type": "string"},
                "course_name": {"type": "string"},
                "category": {"type": "string"},
                "grades": {"type": "array", "items": {"$ref": "#/definitions/GradeInput"}}
            }
        },
        "AnalyzeRequest": {
            "type": "object",
            "required": ["courses"],
            "properties": {
                "courses": {"type": "array", "items": {"$ref": "#/definitions/CourseInput"}},
                "class_average": {"type": "number"}
            }
        },
        "RequiredScoreRequest": {
            "type": "object",
            "required": ["target_average", "upcoming_max_score"],
            "properties": {
                "grades": {"type": "array", "items": {"$ref": "#/definitions/GradeInput"}},
                "target_average": {"type": "number"},
                "upcoming_max_score": {"type": "number"}
            }
        },
        "PredictRequest": {
            "type": "object",
            "required": ["grades"],
            "properties": {
                "grades": {"type": "array", "items": {"$ref": "#/definitions/GradeInput"}},
                "remaining_weight": {"type": "number"}
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
