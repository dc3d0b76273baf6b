package jira

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed Jira call.
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"
	KindForbidden ErrorKind = "forbidden"
	KindNotFound  ErrorKind = "not_found"
	KindHTTP      ErrorKind = "http"
	KindNetwork   ErrorKind = "network"
	KindProtocol  ErrorKind = "protocol"
)

// APIError is the single error type surfaced by the gateway. Message is safe to show to end users.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func classifyStatus(status int, body string) *APIError {
	switch status {
	case 401:
		return &APIError{Kind: KindAuth, StatusCode: status, Message: "Authentication failed. Check your credentials."}
	case 403:
		return &APIError{Kind: KindForbidden, StatusCode: status, Message: "Access forbidden. Check permissions."}
	case 404:
		return &APIError{Kind: KindNotFound, StatusCode: status, Message: "Resource not found."}
	default:
		msg := fmt.Sprintf("HTTP %d", status)
		if body = strings.TrimSpace(body); body != "" {
			msg = fmt.Sprintf("HTTP %d: %s", status, body)
		}
		return &APIError{Kind: KindHTTP, StatusCode: status, Message: msg}
	}
}

// ValidationError reports malformed caller input. It is never produced by a remote call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
