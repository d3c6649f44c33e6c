package lex

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// intentSchema covers the subset of the Lex V1 intent import format this
// tool emits.
const intentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["metadata", "resource", "sampleUtterances", "slots", "conclusionStatement", "slotTypes"],
  "additionalProperties": false,
  "properties": {
    "metadata": {
      "type": "object",
      "required": ["schemaVersion", "importType", "importFormat"],
      "properties": {
        "schemaVersion": {"const": "1.0"},
        "importType": {"const": "LEX"},
        "importFormat": {"const": "JSON"}
      }
    },
    "resource": {
      "type": "object",
      "required": ["name", "version", "fulfillmentActivity"],
      "properties": {
        "name": {"type": "string", "minLength": 1, "maxLength": 100, "pattern": "^([A-Za-z]_?)+$"},
        "version": {"const": 1},
        "fulfillmentActivity": {
          "type": "object",
          "required": ["type"],
          "properties": {"type": {"enum": ["ReturnIntent", "CodeHook"]}}
        }
      }
    },
    "sampleUtterances": {
      "type": "array",
      "items": {"type": "string", "minLength": 1, "maxLength": 200}
    },
    "slots": {"type": "array", "maxItems": 0},
    "conclusionStatement": {
      "type": "object",
      "required": ["messages"],
      "properties": {
        "messages": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["contentType", "content"],
            "properties": {
              "contentType": {"enum": ["PlainText", "SSML", "CustomPayload"]},
              "content": {"type": "string", "minLength": 1, "maxLength": 1000}
            }
          }
        }
      }
    },
    "slotTypes": {"type": "array", "maxItems": 0}
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(intentSchema))
})

// SchemaError lists why a document does not match the import format.
type SchemaError struct {
	Name     string
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("intent %s does not match the Lex import schema: %s", e.Name, strings.Join(e.Problems, "; "))
}

// Validate checks a serialized intent document against the import schema.
func Validate(name string, doc []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile intent schema: %w", err)
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}
	if res.Valid() {
		return nil
	}

	problems := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		problems = append(problems, e.String())
	}
	return &SchemaError{Name: name, Problems: problems}
}
