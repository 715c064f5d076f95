// internal/common/agent/schema.go
package agent

import "line-parking-bot/internal/common/validation"

// structuredSchema accepts absent or null lists and scalar-or-null record fields.
var structuredSchema = validation.MustCompile(`{
  "type": "object",
  "definitions": {
    "scalar": {"type": ["string", "number", "boolean", "null"]}
  },
  "properties": {
    "parking_list": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "parking_name": {"$ref": "#/definitions/scalar"},
          "parking_type": {"$ref": "#/definitions/scalar"},
          "available_seats": {"$ref": "#/definitions/scalar"},
          "parking_fee_description": {"$ref": "#/definitions/scalar"},
          "available_time": {"$ref": "#/definitions/scalar"},
          "google_maps_url": {"$ref": "#/definitions/scalar"}
        }
      }
    },
    "toilet_list": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "toilet_name": {"$ref": "#/definitions/scalar"},
          "toilet_type": {"$ref": "#/definitions/scalar"},
          "toilet_distance": {"$ref": "#/definitions/scalar"},
          "toilet_address": {"$ref": "#/definitions/scalar"},
          "toilet_available_seats": {"$ref": "#/definitions/scalar"},
          "toilet_accessible_seats": {"$ref": "#/definitions/scalar"},
          "toilet_family_seats": {"$ref": "#/definitions/scalar"},
          "toilet_google_maps_url": {"$ref": "#/definitions/scalar"}
        }
      }
    }
  }
}`)
