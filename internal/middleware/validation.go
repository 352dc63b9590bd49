package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ckumar010398/accounts-ms/internal/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON/query names rather than Go names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
	custom := map[string]validator.Func{
		"mobilenumber": func(fl validator.FieldLevel) bool {
			return utils.ValidateMobileNumber(fl.Field().String())
		},
		"accountnumber": func(fl validator.FieldLevel) bool {
			return utils.ValidateAccountNumber(fl.Field().Int())
		},
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	APIPath      string            `json:"apiPath"`
	ErrorCode    string            `json:"errorCode"`
	ErrorMessage string            `json:"errorMessage"`
	ErrorTime    time.Time         `json:"errorTime"`
	Details      []ValidationError `json:"details,omitempty"`
}

func ValidateRequest(obj any) []ValidationError {
	var validationErrors []ValidationError

	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []ValidationError{{Message: err.Error(), Type: "invalid"}}
	}
	for _, err := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   strings.TrimPrefix(err.Namespace(), rootNamespace(err)),
			Message: getErrorMsg(err),
			Type:    err.Tag(),
		})
	}
	return validationErrors
}

// rootNamespace is the struct name validator prefixes every namespace with.
func rootNamespace(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[:i+1]
	}
	return ""
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value must be at least " + err.Param() + " characters long"
	case "max":
		return "Value must be at most " + err.Param() + " characters long"
	case "mobilenumber":
		return "Mobile number must be 10 digits"
	case "accountnumber":
		return "Account number must be a 10-digit number starting with 10"
	default:
		return "Invalid value"
	}
}

func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	resp := newErrorResponse(c, http.StatusBadRequest, "Invalid request data")
	resp.Details = validationErrors
	c.JSON(http.StatusBadRequest, resp)
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, newErrorResponse(c, code, message))
}

func newErrorResponse(c *gin.Context, code int, message string) ErrorResponse {
	return ErrorResponse{
		APIPath:      "uri=" + c.Request.URL.Path,
		ErrorCode:    statusCode(code),
		ErrorMessage: message,
		ErrorTime:    time.Now(),
	}
}

// statusCode turns 404 into "NOT_FOUND".
func statusCode(code int) string {
	text := http.StatusText(code)
	if text == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text))
}
