// Package jsonx decodes low-trust JSON request bodies.
package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes caps what ParseStrictJSONBody reads from a request.
const MaxBodyBytes = 1 << 20

var (
	ErrEmptyBody    = errors.New("empty body")
	ErrTrailingJSON = errors.New("trailing data")
	ErrBodyTooLarge = fmt.Errorf("body exceeds %d bytes", MaxBodyBytes)
)

// ParseStrictJSONBody reads and strictly decodes a JSON request body into dst.
//
// Every failure is a shape problem and maps to 400 Bad Request:
//
//   - malformed JSON (bad tokens, truncated body)
//   - empty body (ErrEmptyBody)
//   - body over MaxBodyBytes (ErrBodyTooLarge)
//   - more than one JSON value (ErrTrailingJSON)
//   - unknown fields
//   - field type mismatches
//
// Required fields and business rules are left to the caller.
func ParseStrictJSONBody[T any](r *http.Request, dst *T) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return err
	}
	if len(body) > MaxBodyBytes {
		return ErrBodyTooLarge
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ErrTrailingJSON
	}
	return nil
}
