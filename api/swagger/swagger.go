package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Sporttools Fitness Scoring API",
        "description": "Scores student physical fitness tests against the national standard and aggregates cohort statistics",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Catalog", "description": "Test item definitions of the loaded standard"},
        {"name": "Scoring", "description": "Raw measurement to score conversion"},
        {"name": "Statistics", "description": "Cohort aggregates over scored records"}
    ],
    "paths": {
        "/items": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List test items",
                "parameters": [
                    {"name": "grade", "in": "query", "type": "string"},
                    {"name": "gender", "in": "query", "type": "string", "enum": ["male", "female"]},
                    {"name": "stage", "in": "query", "type": "string", "enum": ["primary", "middle", "high"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No items for cohort", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/items/{code}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get test item",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown item", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores": {
            "post": {
                "tags": ["Scoring"],
                "summary": "Score one test record",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MeasurementRecord"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid record", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No items for cohort", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores/batch": {
            "post": {
                "tags": ["Scoring"],
                "summary": "Score a batch of test records",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchScoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid batch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/statistics": {
            "post": {
                "tags": ["Statistics"],
                "summary": "Aggregate cohort statistics",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatisticsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "MeasurementRecord": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "class_id": {"type": "string"},
                "grade": {"type": "string"},
                "gender": {"type": "string", "enum": ["male", "female"]},
                "school_stage": {"type": "string", "enum": ["primary", "middle", "high"]},
                "measurements": {"type": "object", "additionalProperties": {"type": "number"}},
                "test_date": {"type": "string", "format": "date-time"}
            },
            "required": ["student_id", "grade", "gender", "measurements"]
        },
        "BatchScoreRequest": {
            "type": "object",
            "properties": {
                "records": {"type": "array", "items": {"$ref": "#/definitions/MeasurementRecord"}}
            },
            "required": ["records"]
        },
        "StatisticsRequest": {
            "type": "object",
            "properties": {
                "dimensions": {"type": "array", "items": {"type": "string", "enum": ["grade", "class", "gender", "item"]}},
                "records": {"type": "array", "items": {"type": "object"}},
                "measurements": {"type": "array", "items": {"$ref": "#/definitions/MeasurementRecord"}}
            },
            "required": ["dimensions"]
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
