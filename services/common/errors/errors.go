package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is the application error carried across service boundaries.
// Code maps 1:1 onto the HTTP status returned to the caller.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Taxonomy constructors. Every service failure is expressed through one of
// these; retryability decisions key off the code, never off message strings.

func NewValidation(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

func NewNotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

func NewAuthentication(message string) *Error {
	return New(http.StatusUnauthorized, message, nil)
}

func NewConflict(message string) *Error {
	return New(http.StatusConflict, message, nil)
}

// NewPreconditionFailed marks a request that is well-formed but targets an
// entity whose state is not eligible for the operation.
func NewPreconditionFailed(message string) *Error {
	return New(http.StatusConflict, message, nil)
}

// NewUpstream wraps a sibling-service or gateway failure. Callers may retry
// per their own policy.
func NewUpstream(message string, err error) *Error {
	return New(http.StatusBadGateway, message, err)
}

// NewUpstreamStatus preserves the upstream HTTP status so transient codes
// (503/504) remain distinguishable to the retry layer.
func NewUpstreamStatus(status int, message string) *Error {
	return New(status, message, nil)
}

func NewInternal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// Kind predicates

func IsNotFound(err error) bool {
	return CodeOf(err) == http.StatusNotFound
}

func IsValidation(err error) bool {
	return CodeOf(err) == http.StatusBadRequest
}

func IsConflict(err error) bool {
	return CodeOf(err) == http.StatusConflict
}

func IsAuthentication(err error) bool {
	return CodeOf(err) == http.StatusUnauthorized
}

// CodeOf returns the HTTP status carried by err, or 500 for plain errors.
func CodeOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// Respond writes err to the gin context in the stable response shape.
// Plain errors are masked as an internal error so internals never leak.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = New(http.StatusInternalServerError, "Internal server error", err)
	}
	c.JSON(appErr.Code, gin.H{
		"success": false,
		"message": appErr.Message,
	})
}
