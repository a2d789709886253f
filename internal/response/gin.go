package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes env with its own status code
func JSON(c *gin.Context, env Envelope) {
	c.JSON(env.Meta.Code, env)
}

// AbortJSON writes env and stops the handler chain
func AbortJSON(c *gin.Context, env Envelope) {
	c.AbortWithStatusJSON(env.Meta.Code, env)
}

// OK writes a 200 envelope
func OK(c *gin.Context, result any, message string) {
	JSON(c, Build(result, message, WithCode(http.StatusOK)))
}

// Created writes a 201 envelope
func Created(c *gin.Context, result any, message string) {
	JSON(c, Build(result, message, WithCode(http.StatusCreated)))
}

// Fail writes an error envelope with a single entry of errType
func Fail(c *gin.Context, code int, message, errType string, errs ...string) {
	if len(errs) == 0 {
		errs = []string{message}
	}
	JSON(c, Build(nil, message, WithCode(code), WithErrors(errType, errs...)))
}

// Invalid writes a 422 envelope carrying field-level messages
func Invalid(c *gin.Context, message string, fields ...FieldError) {
	JSON(c, Build(nil, message, WithCode(http.StatusUnprocessableEntity), WithFieldErrors(ErrorTypeValidation, fields...)))
}

// ServerError writes a generic 500 envelope carrying err's text
func ServerError(c *gin.Context, message string, err error) {
	Fail(c, http.StatusInternalServerError, message, ErrorTypeServer, err.Error())
}
