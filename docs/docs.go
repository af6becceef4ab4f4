// Package docs holds the OpenAPI document served under /swagger.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/admin/translations/scrub": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["translations"],
                "summary": "Scan for or apply translation replacements",
                "parameters": [
                    {"description": "scan or apply request", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.scrubRequest"}}
                ],
                "responses": {
                    "200": {"description": "action=scan returns model.ScanResult, action=apply returns model.ApplyResult", "schema": {"$ref": "#/definitions/model.ScanResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/admin/translations/audit": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["translations"],
                "summary": "Translation audit",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AuditReport"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        }
    },
    "definitions": {
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {"request_id": {"type": "string"}, "error": {"$ref": "#/definitions/handler.errorEnvelope"}}
        },
        "handler.scrubRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string", "enum": ["scan", "apply"]},
                "scanId": {"type": "string", "format": "uuid"},
                "selectedIds": {"type": "array", "items": {"type": "string"}},
                "createBackup": {"type": "boolean", "default": true},
                "replacements": {"type": "array", "items": {"$ref": "#/definitions/model.Replacement"}}
            }
        },
        "model.Replacement": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "component": {"type": "string"},
                "filePath": {"type": "string"},
                "line": {"type": "integer"},
                "text": {"type": "string"},
                "originalText": {"type": "string"},
                "replacement": {"type": "string"},
                "key": {"type": "string"},
                "type": {"type": "string", "enum": ["jsx", "attribute"]},
                "context": {"type": "string"},
                "selected": {"type": "boolean"}
            }
        },
        "model.ScanResult": {
            "type": "object",
            "properties": {
                "scanId": {"type": "string"},
                "replacements": {"type": "array", "items": {"$ref": "#/definitions/model.Replacement"}},
                "totalFound": {"type": "integer"},
                "componentsAffected": {"type": "integer"},
                "filesScanned": {"type": "integer"},
                "filesSkipped": {"type": "integer"},
                "skippedFiles": {"type": "array", "items": {"type": "string"}}
            }
        },
        "model.ApplyResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "backupPath": {"type": "string"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "applied": {"type": "integer"},
                "filesModified": {"type": "array", "items": {"type": "string"}}
            }
        },
        "model.AuditIssue": {
            "type": "object",
            "properties": {
                "component": {"type": "string"},
                "file": {"type": "string"},
                "line": {"type": "integer"},
                "text": {"type": "string"},
                "suggestedKey": {"type": "string"},
                "type": {"type": "string", "enum": ["hardcoded", "missing-translation"]}
            }
        },
        "model.AuditReport": {
            "type": "object",
            "properties": {
                "issues": {"type": "array", "items": {"$ref": "#/definitions/model.AuditIssue"}},
                "totalIssues": {"type": "integer"},
                "componentsWithIssues": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Translation Scrubber API",
	Description:      "Finds hardcoded UI strings in JSX/TSX sources and rewrites them into translation lookups.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
