// Package docs holds the OpenAPI description served at /swagger.
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
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service is healthy", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "503": {"description": "Service is degraded", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/events": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["events"],
                "summary": "Subscribe to device events",
                "responses": {"200": {"description": "SSE event stream", "schema": {"type": "string"}}}
            }
        },
        "/devices": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List all devices",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListDevicesResponse"}},
                    "500": {"description": "Controller error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Add a device",
                "parameters": [{"description": "Device", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.AddDeviceRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.DeviceResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Duplicate name or endpoint", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/devices/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Get device details",
                "parameters": [{"type": "string", "description": "Device ID or name", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DeviceResponse"}},
                    "404": {"description": "Device not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Rename a device",
                "parameters": [
                    {"type": "string", "description": "Device ID or name", "name": "id", "in": "path", "required": true},
                    {"description": "New name", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.RenameDeviceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DeviceResponse"}},
                    "404": {"description": "Device not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Name in use", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["devices"],
                "summary": "Remove a device",
                "parameters": [{"type": "string", "description": "Device ID or name", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "Device removed successfully"},
                    "404": {"description": "Device not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/devices/{id}/state": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Get device state",
                "parameters": [{"type": "string", "description": "Device ID or name", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StateResponse"}},
                    "404": {"description": "Device not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Control a set-top box",
                "parameters": [
                    {"type": "string", "description": "Device ID or name", "name": "id", "in": "path", "required": true},
                    {"description": "power, channel and command", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StateResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Device not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Device unreachable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "504": {"description": "Request timed out", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/listings/channels": {
            "get": {
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "List channels",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListChannelsResponse"}},
                    "501": {"description": "No listings account configured", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/listings/channels/{channel}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Look up a channel",
                "parameters": [{"type": "string", "description": "Channel number", "name": "channel", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ChannelResponse"}},
                    "404": {"description": "Channel not in listings", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/listings/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Refresh listings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListingsStatusResponse"}},
                    "501": {"description": "No listings account configured", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "message": {"type": "string"}}
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "controller": {"type": "string"}, "devices": {"type": "integer"}, "available": {"type": "integer"}, "timestamp": {"type": "string"}}
        },
        "types.AddDeviceRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "protocol": {"type": "string", "enum": ["tcp", "serial"]},
                "host": {"type": "string"},
                "port": {"type": "integer"},
                "serial_port": {"type": "string"},
                "device_index": {"type": "integer"},
                "uses_listings": {"type": "boolean"},
                "poll_interval_seconds": {"type": "integer"},
                "debug": {"type": "boolean"}
            }
        },
        "types.RenameDeviceRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string"}}
        },
        "types.DeviceWithState": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string"},
                "manufacturer": {"type": "string"},
                "model": {"type": "string"},
                "protocol": {"type": "string"},
                "endpoint": {"type": "string"},
                "device_index": {"type": "integer"},
                "uses_listings": {"type": "boolean"},
                "poll_interval_seconds": {"type": "integer"},
                "state_schema": {"type": "object"},
                "state": {"type": "object", "additionalProperties": true}
            }
        },
        "types.DeviceResponse": {
            "type": "object",
            "properties": {"device": {"$ref": "#/definitions/types.DeviceWithState"}}
        },
        "types.ListDevicesResponse": {
            "type": "object",
            "properties": {
                "devices": {"type": "array", "items": {"$ref": "#/definitions/types.DeviceWithState"}},
                "count": {"type": "integer"}
            }
        },
        "types.StateResponse": {
            "type": "object",
            "properties": {
                "device": {"type": "string"},
                "state": {"type": "object", "additionalProperties": true},
                "timestamp": {"type": "string"}
            }
        },
        "listings.Program": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "image_url": {"type": "string"},
                "start": {"type": "string"},
                "end": {"type": "string"}
            }
        },
        "listings.Channel": {
            "type": "object",
            "properties": {
                "number": {"type": "string"},
                "call_sign": {"type": "string"},
                "program": {"$ref": "#/definitions/listings.Program"}
            }
        },
        "types.ListChannelsResponse": {
            "type": "object",
            "properties": {
                "channels": {"type": "array", "items": {"$ref": "#/definitions/listings.Channel"}},
                "count": {"type": "integer"}
            }
        },
        "types.ChannelResponse": {
            "type": "object",
            "properties": {"channel": {"$ref": "#/definitions/listings.Channel"}}
        },
        "types.ListingsStatusResponse": {
            "type": "object",
            "properties": {
                "configured": {"type": "boolean"},
                "channels": {"type": "integer"},
                "last_refresh": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Homai TiVo API",
	Description:      "REST API for controlling TiVo set-top boxes and looking up TV listings",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
