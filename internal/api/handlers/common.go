package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/floatbank/floatbank/internal/audit"
	"github.com/floatbank/floatbank/internal/response"
	"github.com/floatbank/floatbank/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func init() {
	// Report validation failures under the wire names clients send.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	}
}

// NotFound answers unknown routes
func NotFound(c *gin.Context) {
	response.Fail(c, http.StatusNotFound, "Route not found", response.ErrorTypeNotFound)
}

// bindRequest binds the body into req and writes the error envelope when
// that fails. It reports whether the handler may continue.
func bindRequest(c *gin.Context, req any) bool {
	if err := c.ShouldBind(req); err != nil {
		writeBindError(c, err)
		return false
	}
	return true
}

func writeBindError(c *gin.Context, err error) {
	if fields := bindingFieldErrors(err); fields != nil {
		response.Invalid(c, "The given data was invalid", toResponseFields(fields)...)
		return
	}
	response.Fail(c, http.StatusBadRequest, "Invalid request body", response.ErrorTypeBadRequest, err.Error())
}

// bindingFieldErrors converts validator failures into ordered field
// messages. It returns nil for errors that are not validation failures.
func bindingFieldErrors(err error) []service.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]service.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, service.FieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return fields
}

func validationMessage(fe validator.FieldError) string {
	name := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", name, fe.Param())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", name, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s does not match.", name)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "uuid":
		return fmt.Sprintf("The %s must be a valid identifier.", name)
	default:
		return fmt.Sprintf("The %s field is invalid.", name)
	}
}

func toResponseFields(fields []service.FieldError) []response.FieldError {
	out := make([]response.FieldError, len(fields))
	for i, f := range fields {
		out[i] = response.FieldError{Field: f.Field, Message: f.Message}
	}
	return out
}

// writeError maps a service error onto its envelope. message is used for
// the meta message of server and not-found failures.
func writeError(c *gin.Context, message string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Invalid(c, "The given data was invalid", toResponseFields(verr.Fields)...)
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, message, response.ErrorTypeNotFound, notFoundMessage(err))
	case errors.Is(err, audit.ErrInvalidRange):
		response.Fail(c, http.StatusBadRequest, message, response.ErrorTypeBadRequest, err.Error())
	default:
		slog.Error(message, "error", err, "path", c.FullPath())
		response.ServerError(c, message, err)
	}
}

func notFoundMessage(err error) string {
	var nf *service.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return "User not found"
}

// parseID reads the :id path parameter. A malformed ID cannot match any
// row, so it is reported as not found.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, "User not found", response.ErrorTypeNotFound)
		return uuid.Nil, false
	}
	return id, true
}
