package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SkillPath API",
        "description": "Authentication gateway and career-path prompt proxy",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, registration and session lifecycle"},
        {"name": "Users", "description": "Account listing"},
        {"name": "AI", "description": "Career-path generation endpoints"}
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh-token": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RotateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Invalid refresh token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "sort_by", "in": "query", "type": "string"},
                    {"name": "sort_order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ai/industries": {
            "get": {
                "tags": ["AI"],
                "summary": "Generate industries",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ai/job-roles": {
            "post": {
                "tags": ["AI"],
                "summary": "Generate job roles and levels",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/JobRolesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ai/skillset": {
            "post": {
                "tags": ["AI"],
                "summary": "Generate skillset",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SkillsetRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ai/quiz": {
            "post": {
                "tags": ["AI"],
                "summary": "Generate quiz",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "advanced", "in": "query", "type": "boolean"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QuizRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ai/quiz/evaluate": {
            "post": {
                "tags": ["AI"],
                "summary": "Evaluate quiz",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "advanced", "in": "query", "type": "boolean"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EvaluateQuizRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ai/platforms": {
            "post": {
                "tags": ["AI"],
                "summary": "Generate learning platforms",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlatformsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ai/learning-path": {
            "post": {
                "tags": ["AI"],
                "summary": "Generate learning path",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LearningPathRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ai/learning-path/export": {
            "post": {
                "tags": ["AI"],
                "summary": "Export learning path as PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LearningPathDocument"}}
                ],
                "responses": {
                    "200": {"description": "PDF document"}
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
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["name", "email", "password"]
        },
        "RotateRequest": {
            "type": "object",
            "properties": {
                "accountId": {"type": "string"},
                "refreshToken": {"type": "string"}
            },
            "required": ["accountId", "refreshToken"]
        },
        "Account": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "AuthResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "JobRolesRequest": {
            "type": "object",
            "properties": {
                "industry": {"type": "string"}
            },
            "required": ["industry"]
        },
        "SkillsetRequest": {
            "type": "object",
            "properties": {
                "industry": {"type": "string"},
                "role": {"type": "string"},
                "level": {"type": "string"}
            },
            "required": ["industry", "role", "level"]
        },
        "QuizRequest": {
            "type": "object",
            "properties": {
                "industry": {"type": "string"},
                "role": {"type": "string"},
                "level": {"type": "string"},
                "skillset": {"type": "array", "items": {"type": "string"}},
                "learningPath": {"type": "object"}
            },
            "required": ["industry", "role", "level", "skillset"]
        },
        "EvaluateQuizRequest": {
            "type": "object",
            "properties": {
                "quizData": {"type": "array", "items": {"$ref": "#/definitions/QuizItem"}},
                "userAnswers": {"type": "array", "items": {"type": "string"}},
                "learningPath": {"type": "object"}
            },
            "required": ["quizData", "userAnswers"]
        },
        "QuizItem": {
            "type": "object",
            "properties": {
                "question": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "correctAnswer": {"type": "string"}
            }
        },
        "PlatformsRequest": {
            "type": "object",
            "properties": {
                "industry": {"type": "string"},
                "role": {"type": "string"},
                "level": {"type": "string"},
                "subscription": {"type": "string", "enum": ["free", "paid"]}
            },
            "required": ["industry", "role", "level", "subscription"]
        },
        "LearningPathRequest": {
            "type": "object",
            "properties": {
                "score": {"type": "string"},
                "industry": {"type": "string"},
                "role": {"type": "string"},
                "swotAnalysis": {"type": "object"},
                "platforms": {"type": "array", "items": {"type": "string"}},
                "skillLevel": {"type": "string"},
                "timeAvailablePerWeek": {"type": "integer"},
                "durationInWeeks": {"type": "integer"}
            },
            "required": ["score", "industry", "role", "swotAnalysis", "platforms", "skillLevel", "timeAvailablePerWeek", "durationInWeeks"]
        },
        "LearningPathDocument": {
            "type": "object",
            "properties": {
                "learningPath": {"type": "object"}
            },
            "required": ["learningPath"]
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
                "timestamp": {"type": "string"},
                "requestId": {"type": "string"}
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
