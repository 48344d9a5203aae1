package middleware

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"speech-transcription/internal/api/errors"
)

// MaxBodyBytes caps the request body. Reads past the limit fail with
// *http.MaxBytesError, which HandleError maps to 413.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// ValidateForm binds a multipart or urlencoded form and checks its struct tags
func ValidateForm(c *gin.Context, req any) error {
	err := c.ShouldBind(req)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return err
	}

	var validationErrs validator.ValidationErrors
	if !stderrors.As(err, &validationErrs) {
		return errors.NewBadRequestError("invalid multipart form")
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fieldError := range validationErrs {
		field := strings.ToLower(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			fields[field] = "is required"
		case "max":
			fields[field] = "is too long"
		case "oneof":
			fields[field] = "must be one of the allowed values"
		default:
			fields[field] = "is invalid"
		}
	}
	return errors.NewValidationError("Validation failed", fields)
}
