package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Warden Governance API",
        "description": "Multi-party request governance for custody operations",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Operator login"},
        {"name": "Requests", "description": "Governance request lifecycle"},
        {"name": "Reports", "description": "Request report exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate operator",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/requests": {
            "get": {
                "tags": ["Requests"],
                "summary": "List governance requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "account_id", "in": "query", "type": "string"},
                    {"name": "proposer", "in": "query", "type": "string"},
                    {"name": "voter", "in": "query", "type": "string"},
                    {"name": "target_user_id", "in": "query", "type": "string"},
                    {"name": "created_from", "in": "query", "type": "string"},
                    {"name": "created_to", "in": "query", "type": "string"},
                    {"name": "expires_from", "in": "query", "type": "string"},
                    {"name": "expires_to", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Requests"],
                "summary": "Submit a governance request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRequestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Caller may not create this request"}
                }
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": ["Requests"],
                "summary": "Get request detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/requests/{id}/votes": {
            "post": {
                "tags": ["Requests"],
                "summary": "Vote on a governance request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate vote or request already decided"}
                }
            }
        },
        "/requests/{id}/audit": {
            "get": {
                "tags": ["Requests"],
                "summary": "List audit entries for a request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/requests": {
            "post": {
                "tags": ["Reports"],
                "summary": "Export requests as a report",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/download": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a previously exported report",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateRequestRequest": {
            "type": "object",
            "properties": {
                "operation": {"$ref": "#/definitions/Operation"}
            },
            "required": ["operation"]
        },
        "Operation": {
            "type": "object",
            "description": "Tagged union: exactly one variant must be set",
            "properties": {
                "transfer": {"type": "object"},
                "add_account": {"type": "object"},
                "edit_account": {"type": "object"},
                "add_user": {"type": "object"},
                "edit_user": {"type": "object"},
                "add_user_group": {"type": "object"},
                "edit_user_group": {"type": "object"},
                "remove_user_group": {"type": "object"},
                "upgrade": {"type": "object"},
                "add_access_policy": {"type": "object"},
                "edit_access_policy": {"type": "object"},
                "remove_access_policy": {"type": "object"},
                "add_proposal_policy": {"type": "object"},
                "edit_proposal_policy": {"type": "object"},
                "remove_proposal_policy": {"type": "object"}
            }
        },
        "VoteRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["APPROVE", "REJECT"]}
            },
            "required": ["decision"]
        },
        "RequestResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "proposer": {"type": "string"},
                "operation_type": {"type": "string"},
                "operation": {"$ref": "#/definitions/Operation"},
                "status": {"type": "string"},
                "votes": {"type": "array", "items": {"$ref": "#/definitions/Vote"}},
                "created_at": {"type": "string"},
                "expires_at": {"type": "string"},
                "execution_result": {"type": "string"}
            }
        },
        "Vote": {
            "type": "object",
            "properties": {
                "voter_id": {"type": "string"},
                "decision": {"type": "string"},
                "voted_at": {"type": "string"}
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
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
