package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Class Manager API",
        "description": "Scheduling backend: courses, class groups, timetable placement and exports.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Users", "description": "User and teacher roster management"},
        {"name": "Courses", "description": "Course catalogue"},
        {"name": "TimeWindows", "description": "Per-course timetable geometry"},
        {"name": "Disciplines", "description": "Subjects taught within a course"},
        {"name": "Classrooms", "description": "Physical rooms"},
        {"name": "Groups", "description": "Class groups placed on the grid"},
        {"name": "Terms", "description": "Academic terms"},
        {"name": "Schedules", "description": "Timetable placement and generation"},
        {"name": "Import", "description": "Bulk data import"},
        {"name": "Dashboard", "description": "Per-term occupancy reports"},
        {"name": "Exports", "description": "Asynchronous CSV exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and issue a token pair",
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke a refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Revoked"}}
            }
        },
        "/auth/password": {
            "put": {
                "tags": ["Auth"],
                "summary": "Change own password",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Changed"}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Authenticated user profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "User"}}
            }
        },
        "/auth/reset-password/request": {
            "post": {
                "tags": ["Auth"],
                "summary": "Request a password reset link by email",
                "responses": {
                    "204": {"description": "Reset mail sent"},
                    "404": {"description": "Unknown email"}
                }
            }
        },
        "/auth/reset-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Set a new password with a reset token",
                "responses": {
                    "204": {"description": "Password changed"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Paginated users"}}
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/users/teachers": {
            "get": {
                "tags": ["Users"],
                "summary": "List active teachers",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Teachers"}}
            }
        },
        "/courses/{id}/time-window": {
            "get": {
                "tags": ["TimeWindows"],
                "summary": "Get the time window of a course",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Time window"},
                    "404": {"description": "Course not configured"}
                }
            },
            "put": {
                "tags": ["TimeWindows"],
                "summary": "Create or replace the time window of a course",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Time window"},
                    "422": {"description": "Window invariant violated"}
                }
            },
            "delete": {
                "tags": ["TimeWindows"],
                "summary": "Remove the time window of a course",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Removed"}}
            }
        },
        "/courses/{id}/slots": {
            "get": {
                "tags": ["TimeWindows"],
                "summary": "Lesson slots derived from the course time window",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Slots"}}
            }
        },
        "/terms/schedulable": {
            "get": {
                "tags": ["Terms"],
                "summary": "Terms still open for scheduling",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Terms"}}
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedule entries",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Entries"}}
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Place or move a schedule entry",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Saved entry"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ConflictError"}}
                }
            }
        },
        "/schedules/public": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Public timetable of the currently schedulable term",
                "responses": {"200": {"description": "Timetable"}}
            }
        },
        "/schedules/copy": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Copy a course timetable between terms",
                "description": "Wipes the destination term first; conflicting entries are skipped and reported.",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Copied and skipped entries"}
                }
            }
        },
        "/schedules/generate": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Auto-generate a course timetable",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Placed and unplaced groups"}}
            }
        },
        "/import": {
            "post": {
                "tags": ["Import"],
                "summary": "Bulk import users, terms, classrooms, courses, disciplines and groups",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Import result with per-row errors"}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Term dashboard report",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Report"}}
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Request a timetable CSV export",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Export job"}}
            }
        },
        "/exports/{id}/download-token": {
            "post": {
                "tags": ["Exports"],
                "summary": "Issue a signed download URL",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Signed URL"},
                    "422": {"description": "Job not completed yet"}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an exported file by signed token",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV file"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ConflictError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string",
                    "enum": ["TEACHER_CONFLICT", "ROOM_CONFLICT", "GROUP_CONFLICT", "TERM_FINALIZED", "DAY_NOT_ALLOWED", "OUTSIDE_WINDOW", "DURATION_MISMATCH"]
                },
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
