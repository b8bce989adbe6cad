package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Samvidha Portal API",
        "description": "Attendance and lab-record scraping service for the Samvidha college portal",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Attendance", "description": "Attendance dashboard and projections"},
        {"name": "Lab", "description": "Lab record listing and submission"},
        {"name": "System", "description": "Probes and diagnostics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["System"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/ping": {
            "get": {
                "tags": ["System"],
                "summary": "Liveness probe kept for legacy clients",
                "responses": {
                    "200": {"description": "pong"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/dashboard": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Login against the portal and fetch the attendance dashboard",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DashboardRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid username or password"},
                    "502": {"description": "Portal scrape failed"},
                    "503": {"description": "System busy, retry shortly"}
                }
            },
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance dashboard for the current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Session expired"}
                }
            }
        },
        "/b_safe": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Overall percentage projected after extra bunked periods",
                "parameters": [
                    {"name": "bunk", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Session expired"}
                }
            }
        },
        "/course/{code}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Per-subject attendance with projected percentage",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "bunk", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course code"}
                }
            }
        },
        "/profile": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Overview block for the session user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Session expired"}
                }
            }
        },
        "/logout": {
            "post": {
                "tags": ["Attendance"],
                "summary": "End the current session",
                "responses": {
                    "204": {"description": "Session ended"}
                }
            }
        },
        "/lab": {
            "get": {
                "tags": ["Lab"],
                "summary": "Lab page shell with the cached attendance echo",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Session expired"}
                }
            },
            "post": {
                "tags": ["Lab"],
                "summary": "Build a PDF from uploaded images and submit it as a lab record",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "lab_code", "in": "formData", "required": true, "type": "string"},
                    {"name": "week_no", "in": "formData", "required": true, "type": "string"},
                    {"name": "title", "in": "formData", "required": true, "type": "string"},
                    {"name": "images", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Upload outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload"},
                    "401": {"description": "Session expired"}
                }
            }
        },
        "/get_lab_subjects": {
            "post": {
                "tags": ["Lab"],
                "summary": "List the lab subjects available to the session user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Session expired"}
                }
            }
        },
        "/get_lab_dates": {
            "post": {
                "tags": ["Lab"],
                "summary": "List the open submission slots for one lab",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LabDatesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Lab code missing"}
                }
            }
        },
        "/get_experiment_title": {
            "post": {
                "tags": ["Lab"],
                "summary": "Resolve the experiment title for one week of a lab",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExperimentTitleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Lab code or week number missing"}
                }
            }
        }
    },
    "definitions": {
        "DashboardRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "force": {"type": "boolean"}
            },
            "required": ["username", "password"]
        },
        "LabDatesRequest": {
            "type": "object",
            "properties": {
                "lab_code": {"type": "string"}
            },
            "required": ["lab_code"]
        },
        "ExperimentTitleRequest": {
            "type": "object",
            "properties": {
                "lab_code": {"type": "string"},
                "week_number": {"type": "string"}
            },
            "required": ["lab_code", "week_number"]
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
