package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response format.
type Response struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Application-level error codes. The HTTP status alone cannot distinguish
// an inactive account from a missing permission, so clients switch on Code.
const (
	CodeBadRequest       = 400
	CodeUnauthenticated  = 401
	CodeForbidden        = 403
	CodeInactive         = 4031
	CodeNotFound         = 404
	CodeConflict         = 409
	CodeValidationFailed = 422
	CodeRateLimited      = 429
	CodeServerError      = 500
)

// AppError represents a structured application error with HTTP status,
// error code and optional field-level validation detail.
type AppError struct {
	HTTPStatus int               // HTTP status code (e.g. 400, 404, 500)
	Code       int               // Application-level error code
	Message    string            // Human-readable error message
	Fields     map[string]string // Field-level errors for validation failures
}

func (e *AppError) Error() string {
	return e.Message
}

// Pre-defined error constructors

func NewBadRequest(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: CodeBadRequest, Message: msg}
}

// NewUnauthenticated covers missing, malformed or expired credentials.
func NewUnauthenticated(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Code: CodeUnauthenticated, Message: msg}
}

// NewForbidden covers a valid identity lacking the required permission.
func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

// NewInactive covers a valid identity whose account has been deactivated.
func NewInactive(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Code: CodeInactive, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

// NewConflict covers uniqueness violations and referential delete guards.
func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: CodeConflict, Message: msg}
}

// NewValidationFailed carries per-field error messages from config validation.
func NewValidationFailed(msg string, fields map[string]string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: CodeValidationFailed, Message: msg, Fields: fields}
}

func NewRateLimited(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusTooManyRequests, Code: CodeRateLimited, Message: msg}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Code: CodeServerError, Message: msg}
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Error sends an error response. If err is an *AppError, its code and status
// are used; otherwise a generic 500 internal server error is returned.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{
			Code:    appErr.Code,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Code:    CodeServerError,
		Message: err.Error(),
	})
}

// AbortError sends an error response and aborts the middleware chain.
func AbortError(c *gin.Context, err *AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, Response{
		Code:    err.Code,
		Message: err.Message,
		Fields:  err.Fields,
	})
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	Error(c, NewBadRequest(msg))
}

func Unauthenticated(c *gin.Context, msg string) {
	Error(c, NewUnauthenticated(msg))
}

func Forbidden(c *gin.Context, msg string) {
	Error(c, NewForbidden(msg))
}

func NotFound(c *gin.Context, msg string) {
	Error(c, NewNotFound(msg))
}

func Conflict(c *gin.Context, msg string) {
	Error(c, NewConflict(msg))
}

func ServerError(c *gin.Context, msg string) {
	Error(c, NewServerError(msg))
}
