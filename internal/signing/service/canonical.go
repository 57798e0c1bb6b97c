package service

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonicalize produces the deterministic byte encoding of a structured value.
// Object keys are sorted lexicographically at every nesting level and
// whitespace is fixed, so two semantically equal payloads with differently
// ordered fields canonicalize to identical bytes and therefore produce
// identical signatures.
//
// The value is round-tripped through JSON: the intermediate decode uses
// json.Number to keep integer literals exact, and the final encode relies on
// encoding/json's sorted map-key output.
func Canonicalize(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var intermediate any
	if err := dec.Decode(&intermediate); err != nil {
		return nil, fmt.Errorf("failed to normalize payload: %w", err)
	}

	canonical, err := json.Marshal(intermediate)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize payload: %w", err)
	}

	return canonical, nil
}
