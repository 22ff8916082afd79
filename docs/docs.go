// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package docs registers the OpenAPI document served at /swagger/.
// Regenerate with: swag init -g cmd/server/docs.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "GitHub Repository",
            "url": "https://github.com/tomtom215/fleetwatch/issues"
        },
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/alarm-types": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Alarms"],
                "summary": "Alarm type catalogue",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.AlarmTypeCount"}}}
                }
            }
        },
        "/alarm/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Alarms"],
                "summary": "Alarm detail with its device",
                "parameters": [
                    {"type": "integer", "description": "Alarm ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.AlarmDetail"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/alarms": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Alarms"],
                "summary": "Alarms in a time window",
                "description": "Without start or hours the window is the last 24 hours. Dates without a zone are read in brigade.time_zone.",
                "parameters": [
                    {"type": "string", "description": "Window start (RFC3339, YYYY-MM-DD HH:MM:SS or YYYY-MM-DD)", "name": "start", "in": "query"},
                    {"type": "string", "description": "Window end", "name": "end", "in": "query"},
                    {"type": "integer", "description": "Window length in hours when start is absent (1-8760)", "name": "hours", "in": "query"},
                    {"type": "string", "description": "Comma-separated device IDs", "name": "terid", "in": "query"},
                    {"type": "string", "description": "Comma-separated alarm type codes", "name": "type", "in": "query"},
                    {"type": "integer", "description": "Maximum rows", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.AlarmView"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/alarms/heatmap": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Alarms"],
                "summary": "Weighted alarm points for the heatmap layer",
                "parameters": [
                    {"type": "string", "name": "start", "in": "query"},
                    {"type": "string", "name": "end", "in": "query"},
                    {"type": "integer", "name": "hours", "in": "query"},
                    {"type": "string", "name": "terid", "in": "query"},
                    {"type": "string", "name": "type", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.HeatmapPoint"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/device-groups": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Devices"],
                "summary": "Device group hierarchy",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.DeviceGroup"}}}
                }
            }
        },
        "/devices": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Devices"],
                "summary": "Registered devices",
                "parameters": [
                    {"type": "integer", "description": "Filter by group", "name": "group_id", "in": "query"},
                    {"type": "integer", "description": "Maximum rows", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Device"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/gps/position/{terid}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Positions"],
                "summary": "Latest position of one device",
                "parameters": [
                    {"type": "string", "description": "Device ID", "name": "terid", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.PositionView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/gps/positions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Positions"],
                "summary": "Latest positions with derived status",
                "parameters": [
                    {"type": "string", "description": "Comma-separated device IDs", "name": "terid", "in": "query"},
                    {"enum": ["moving", "stopped", "offline"], "type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.PositionView"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/health/live": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Core"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HealthStatus"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Core"],
                "summary": "Readiness probe (database ping)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HealthStatus"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.HealthStatus"}}
                }
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Core"],
                "summary": "Fleet statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Stats"}}
                }
            }
        },
        "/sync/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "Scheduler status",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.SchedulerStatus"}}}
                }
            }
        },
        "/sync/{scheduler}": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "Queue an immediate scheduler run",
                "parameters": [
                    {"enum": ["devices", "positions", "alarms"], "type": "string", "name": "scheduler", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/models.SyncAccepted"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["Realtime"],
                "summary": "Live feed WebSocket",
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        }
    },
    "definitions": {
        "models.APIError": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "VALIDATION_ERROR"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true}
            }
        },
        "models.AlarmDetail": {"type": "object", "additionalProperties": true},
        "models.AlarmTypeCount": {
            "type": "object",
            "properties": {
                "type": {"type": "integer"},
                "name": {"type": "string"},
                "count": {"type": "integer"}
            }
        },
        "models.AlarmView": {"type": "object", "additionalProperties": true},
        "models.Device": {"type": "object", "additionalProperties": true},
        "models.DeviceGroup": {
            "type": "object",
            "properties": {
                "group_id": {"type": "integer"},
                "group_name": {"type": "string"},
                "parent_id": {"type": "integer"},
                "last_updated": {"type": "string"}
            }
        },
        "models.HealthStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "version": {"type": "string"},
                "database_connected": {"type": "boolean"},
                "timestamp": {"type": "string"},
                "uptime_seconds": {"type": "number"}
            }
        },
        "models.HeatmapPoint": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "lat": {"type": "number"},
                "lng": {"type": "number"},
                "intensity": {"type": "number"},
                "terid": {"type": "string"},
                "car_license": {"type": "string"},
                "alarm_type": {"type": "integer"},
                "type_name": {"type": "string"},
                "gps_time": {"type": "string"},
                "speed": {"type": "number"}
            }
        },
        "models.PositionView": {"type": "object", "additionalProperties": true},
        "models.SchedulerStatus": {"type": "object", "additionalProperties": true},
        "models.Stats": {"type": "object", "additionalProperties": true},
        "models.SyncAccepted": {
            "type": "object",
            "properties": {
                "scheduler": {"type": "string"},
                "status": {"type": "string", "example": "queued"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Fleetwatch API",
	Description:      "Read-only map API over vehicle telemetry synced from the Brigade fleet platform.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
