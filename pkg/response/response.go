// Package response defines the JSON envelope every API route answers with.
package response

import "pmis/pkg/pagination"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope. Data and Error are mutually exclusive.
type Response struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func Success(statusCode int, data interface{}) Response {
	return Response{Status: StatusSuccess, StatusCode: statusCode, Data: data}
}

// Page wraps one page of a listing as {<key>: items, meta: {...}}.
func Page(statusCode int, key string, items interface{}, meta pagination.Meta) Response {
	return Success(statusCode, map[string]interface{}{
		key:    items,
		"meta": meta,
	})
}

// Error carries a client-facing message; internal details never go here.
func Error(statusCode int, err string) Response {
	return Response{Status: StatusError, StatusCode: statusCode, Error: err}
}
