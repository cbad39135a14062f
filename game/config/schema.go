package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const levelSchemaURL = "level.schema.json"

// LevelSchema is the JSON schema every level file must satisfy
const LevelSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "level",
  "type": "object",
  "required": ["layout"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "order": {"type": "integer"},
    "layout": {
      "type": "array",
      "minItems": 3,
      "maxItems": 64,
      "items": {"type": "string", "pattern": "^[#.Ss -]{3,64}$"}
    },
    "camera_target": {"$ref": "#/$defs/size"},
    "background": {
      "type": "object",
      "required": ["width", "height"],
      "additionalProperties": false,
      "properties": {
        "width": {"type": "number", "exclusiveMinimum": 0},
        "height": {"type": "number", "exclusiveMinimum": 0},
        "variant": {"type": "string"}
      }
    }
  },
  "$defs": {
    "size": {
      "type": "object",
      "required": ["width", "height"],
      "additionalProperties": false,
      "properties": {
        "width": {"type": "number", "exclusiveMinimum": 0},
        "height": {"type": "number", "exclusiveMinimum": 0}
      }
    }
  }
}`

// CompileLevelSchema compiles LevelSchema
func CompileLevelSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(levelSchemaURL, strings.NewReader(LevelSchema)); err != nil {
		return nil, fmt.Errorf("add level schema: %w", err)
	}
	s, err := c.Compile(levelSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile level schema: %w", err)
	}
	return s, nil
}

// ValidateLevelJSON checks raw level file contents against schema
func ValidateLevelJSON(schema *jsonschema.Schema, data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse level: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
