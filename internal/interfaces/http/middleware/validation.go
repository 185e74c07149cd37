package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/wmsexpress/backend/internal/interfaces/http/dto"
)

// SetupValidator makes gin's binding validator report JSON field names,
// falling back to the form tag for query bindings. It also registers trimmax,
// a max length check on the value with surrounding whitespace removed.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	if err := v.RegisterValidation("trimmax", trimMax); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			switch name {
			case "-":
				return ""
			case "":
				continue
			}
			return name
		}
		return ""
	})
}

// HandleBindError writes the response for a failed ShouldBind call.
// Oversized bodies get ERR_PAYLOAD_TOO_LARGE. Empty, truncated or malformed
// JSON gets ERR_INVALID_JSON, and struct tag failures get per-field details.
func HandleBindError(c *gin.Context, err error) {
	var (
		sizeErr   *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		fieldErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &sizeErr):
		abortPayloadTooLarge(c)
	case errors.Is(err, io.EOF):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidJSON, "Request body is empty", requestIDOf(c)))
	case errors.Is(err, io.ErrUnexpectedEOF), errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidJSON, "Request body is not valid JSON", requestIDOf(c)))
	case errors.As(err, &fieldErrs):
		details := make([]dto.ValidationDetail, len(fieldErrs))
		for i, fe := range fieldErrs {
			details[i] = dto.ValidationDetail{Field: fe.Field(), Message: fieldMessage(fe)}
		}
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", requestIDOf(c), details))
	default:
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeBadRequest, err.Error(), requestIDOf(c)))
	}
}

func trimMax(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil || fl.Field().Kind() != reflect.String {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) <= limit
}

func requestIDOf(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDHeader)
}

var tagMessages = map[string]string{
	"required": "This field is required",
	"oneof":    "Must be one of: %s",
	"gte":      "Must be greater than or equal to %s",
	"lte":      "Must be less than or equal to %s",
	"gt":       "Must be greater than %s",
	"lt":       "Must be less than %s",
	"min":      "Must be at least %s",
	"max":      "Must be at most %s",
	"trimmax":  "Must be at most %s characters",
	"dive":     "Contains an invalid entry",
}

// fieldMessage renders a validator failure for API clients.
func fieldMessage(fe validator.FieldError) string {
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return "Invalid value"
	}
	if !strings.Contains(msg, "%s") {
		return msg
	}
	msg = fmt.Sprintf(msg, fe.Param())
	if (fe.Tag() == "min" || fe.Tag() == "max") && fe.Kind() == reflect.String {
		msg += " characters"
	}
	return msg
}
