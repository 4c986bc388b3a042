package llm

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/interview-intel/internal/schemas"
)

// maxRawInError bounds how much model output is kept on a decode error
const maxRawInError = 2000

// MalformedGenerationError reports model output that could not be decoded or failed its schema
type MalformedGenerationError struct {
	Raw     string
	Message string
	Cause   error
}

func (e *MalformedGenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed generation: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed generation: %s", e.Message)
}

func (e *MalformedGenerationError) Unwrap() error {
	return e.Cause
}

// DecodeStructured strips fences, validates the JSON against an embedded schema and
// decodes it into T. Every failure is returned as *MalformedGenerationError.
func DecodeStructured[T any](raw string, schema schemas.Name) (*T, error) {
	cleaned := CleanJSONBlock(raw)
	if cleaned == "" {
		return nil, newMalformed(raw, "empty output", nil)
	}

	if !json.Valid([]byte(cleaned)) {
		return nil, newMalformed(raw, "output is not valid JSON", nil)
	}

	if schema != "" {
		if err := schemas.Validate(schema, cleaned); err != nil {
			return nil, newMalformed(raw, fmt.Sprintf("output does not match %s schema", schema), err)
		}
	}

	var out T
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, newMalformed(raw, "failed to decode output", err)
	}
	return &out, nil
}

func newMalformed(raw, message string, cause error) *MalformedGenerationError {
	if len(raw) > maxRawInError {
		raw = raw[:maxRawInError]
	}
	return &MalformedGenerationError{Raw: raw, Message: message, Cause: cause}
}
