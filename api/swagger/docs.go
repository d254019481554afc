// Package swagger registers the OpenAPI document served at /swagger/index.html.
// Regenerate with: swag init -g cmd/api/main.go -o api/swagger
package swagger

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
        "/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.LoginUserRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/logout": {
            "post": {"tags": ["auth"], "summary": "Logout", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Get current user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/projects/{id}/payment-requests": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["payment-requests"], "summary": "List payment requests",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["payment-requests"], "summary": "Submit a payment request",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.CreatePaymentRequestDTO"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/payment-requests/{id}/actions": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["payment-requests"], "summary": "Record an approval action",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.ApprovalActionRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/projects/{id}/review": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["projects"], "summary": "Project review panel",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/reports/{kind}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Get a report",
                "parameters": [{"type": "string", "name": "kind", "in": "path", "required": true}, {"type": "string", "name": "financialYear", "in": "query"}, {"type": "integer", "name": "quarter", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/reports/{kind}/export": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Export a report",
                "parameters": [{"type": "string", "name": "kind", "in": "path", "required": true}, {"type": "string", "name": "format", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/{group}/{kind}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["records"], "summary": "List records",
                "parameters": [{"type": "string", "name": "group", "in": "path", "required": true}, {"type": "string", "name": "kind", "in": "path", "required": true}, {"type": "integer", "name": "parentId", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "string"},
                "status": {"type": "string"},
                "status_code": {"type": "integer"}
            }
        },
        "service.LoginUserRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "service.CreatePaymentRequestDTO": {
            "type": "object",
            "required": ["amount", "description"],
            "properties": {"amount": {"type": "number"}, "description": {"type": "string"}, "invoiceNumber": {"type": "string"}}
        },
        "service.ApprovalActionRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {"action": {"type": "string"}, "notes": {"type": "string"}, "assignedToUserId": {"type": "integer"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "PMIS API",
	Description:      "Project management information system: payment approvals, documents, reports and planning records.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
