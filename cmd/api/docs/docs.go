// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o cmd/api/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/generate": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Extracts text from an uploaded document, asks the language model for multiple-choice questions and appends them to the quiz",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["generation"],
                "summary": "Generate quiz questions from a document",
                "parameters": [
                    {
                        "description": "Generation request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.GenerateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.GenerateResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ValidationErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.QuotaExceededResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/usage": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Admits one unit of the resource for the user's plan, or denies with an upgrade hint",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["usage"],
                "summary": "Check and consume a usage unit",
                "parameters": [
                    {
                        "description": "Usage request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.UsageRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.UsageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ValidationErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.QuotaExceededResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.ValidationError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "field": {"type": "string"},
                "message": {"type": "string"},
                "value": {}
            }
        },
        "dto.GenerateRequest": {
            "type": "object",
            "properties": {
                "document_id": {"type": "string"},
                "quiz_id": {"type": "string"},
                "requested_question_count": {"type": "integer", "example": 5},
                "user_id": {"type": "string"}
            }
        },
        "dto.GenerateResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "success": {"type": "boolean"}
            }
        },
        "dto.QuotaExceededResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "plan": {"type": "string"},
                "upgrade": {"type": "boolean"}
            }
        },
        "dto.UsageRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["ai_calls", "documents_uploaded", "quizzes_created"]},
                "user_id": {"type": "string"}
            }
        },
        "dto.UsageResponse": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "plan": {"type": "string"},
                "remaining": {"type": "integer"},
                "success": {"type": "boolean"},
                "type": {"type": "string"},
                "used": {"type": "integer"}
            }
        },
        "middleware.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "context": {"type": "object", "additionalProperties": true},
                "details": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "middleware.ValidationErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/domain.ValidationError"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "description": "Type 'Bearer YOUR_JWT_TOKEN' to authorize.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8090",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "DocQuiz API",
	Description:      "Generates multiple-choice quiz questions from uploaded documents.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
