package devserver

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// requestSchema validates the wire shape of POST /payment/request-payment.
// Cross-field rules (reference key vs. assets) are enforced in the handler,
// matching the real API's behavior of rejecting structurally valid but
// semantically empty requests with its own message.
const requestSchema = `{
  "type": "object",
  "properties": {
    "assets": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id":          {"type": "string"},
          "name":        {"type": "string"},
          "price":       {"type": "string"},
          "quantity":    {"type": "integer", "minimum": 1},
          "description": {"type": "string"}
        },
        "required": ["quantity"]
      }
    },
    "paymentReference": {"type": "string"},
    "paymentLabel":     {"type": "string"},
    "generateQrCode":   {"type": "boolean"}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(requestSchema)

// validateRequestBody checks raw JSON against requestSchema, returning a
// single aggregated error message on violation.
func validateRequestBody(body []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
}
