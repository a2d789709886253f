// Package response builds the {meta, result} envelope returned by every endpoint.
package response

import (
	"net/http"
	"reflect"
)

// Error types carried in meta.errors
const (
	ErrorTypeValidation = "validation"
	ErrorTypeNotFound   = "not_found"
	ErrorTypeAuth       = "auth"
	ErrorTypeForbidden  = "forbidden"
	ErrorTypeBadRequest = "bad_request"
	ErrorTypeServer     = "server"
)

// Error is a single entry of meta.errors
type Error struct {
	Type    string `json:"error_type"`
	Message string `json:"error_message"`
	Field   string `json:"field,omitempty"`
}

// Meta describes the outcome of a request
type Meta struct {
	Code    int     `json:"code"`
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Errors  []Error `json:"errors,omitempty"`
}

// Envelope is the normalized body of every API response.
// Result is always null when Meta.Errors is non-empty.
type Envelope struct {
	Meta   Meta `json:"meta"`
	Result any  `json:"result"`
}

// FieldError is a validation message attached to one input field
type FieldError struct {
	Field   string
	Message string
}

type options struct {
	code      int
	errorType string
	errors    []Error
}

// Option customizes Build
type Option func(*options)

// WithCode sets an explicit status code instead of the derived default
func WithCode(code int) Option {
	return func(o *options) {
		o.code = code
	}
}

// WithErrors attaches raw error messages, each wrapped with errType
func WithErrors(errType string, messages ...string) Option {
	return func(o *options) {
		for _, msg := range messages {
			o.errors = append(o.errors, Error{Type: errType, Message: msg})
		}
	}
}

// WithFieldErrors attaches field-level messages in the given order
func WithFieldErrors(errType string, fields ...FieldError) Option {
	return func(o *options) {
		for _, fe := range fields {
			o.errors = append(o.errors, Error{Type: errType, Message: fe.Message, Field: fe.Field})
		}
	}
}

// Build assembles an Envelope. Without WithCode the code is 422 when errors
// are present, 200 when result is non-empty and 404 otherwise. A 2xx code
// passed together with errors falls back to 422.
func Build(result any, message string, opts ...Option) Envelope {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	code := o.code
	// An envelope carrying errors is never successful.
	if len(o.errors) > 0 && code >= 200 && code < 300 {
		code = 0
	}
	if code == 0 {
		switch {
		case len(o.errors) > 0:
			code = http.StatusUnprocessableEntity
		case truthy(result):
			code = http.StatusOK
		default:
			code = http.StatusNotFound
		}
	}

	env := Envelope{
		Meta: Meta{
			Code:    code,
			Success: code >= 200 && code < 300,
			Message: message,
		},
		Result: result,
	}

	if len(o.errors) > 0 {
		env.Meta.Errors = o.errors
		env.Result = nil
	}

	return env
}

// truthy reports whether v carries a value: nil, zero scalars and empty
// strings, slices and maps are falsy.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return truthy(rv.Elem().Interface())
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String, reflect.Chan:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return !rv.IsZero()
	case reflect.Func:
		return !rv.IsNil()
	default:
		return true
	}
}
