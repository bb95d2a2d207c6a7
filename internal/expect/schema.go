package expect

import (
	"github.com/xeipuuv/gojsonschema"

	"trackcheck/pkg/errors"
)

// templateSchema is the shape every module template must satisfy: known
// event-type sections at the top level, each an object tree whose leaves
// are strings, numbers, booleans, or lists of scalars.
const templateSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "pv": {"$ref": "#/definitions/section"},
    "pdp_pv": {"$ref": "#/definitions/section"},
    "module_exposure": {"$ref": "#/definitions/section"},
    "product_exposure": {"$ref": "#/definitions/section"},
    "product_click": {"$ref": "#/definitions/section"},
    "product_atc_click": {"$ref": "#/definitions/section"},
    "product_minidetail": {"$ref": "#/definitions/section"},
    "pdp_buynow_click": {"$ref": "#/definitions/section"},
    "pdp_atc_click": {"$ref": "#/definitions/section"},
    "pdp_gift_click": {"$ref": "#/definitions/section"},
    "pdp_join_click": {"$ref": "#/definitions/section"},
    "pdp_rental_click": {"$ref": "#/definitions/section"}
  },
  "definitions": {
    "section": {
      "type": "object",
      "additionalProperties": {"$ref": "#/definitions/leaf"}
    },
    "leaf": {
      "oneOf": [
        {"type": "string"},
        {"type": "number"},
        {"type": "boolean"},
        {
          "type": "array",
          "items": {
            "oneOf": [{"type": "string"}, {"type": "number"}]
          }
        },
        {
          "type": "object",
          "additionalProperties": {"$ref": "#/definitions/leaf"}
        }
      ]
    }
  }
}`

// Lint validates raw template bytes against the template schema. A nil
// return means the document parses and every section conforms.
func Lint(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(templateSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return errors.ErrTemplateInvalid.WithCause(err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return errors.ErrTemplateInvalid.WithDetail("problems", problems)
}
