package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

// Envelope represents the success response contract.
type Envelope struct {
	Data       interface{}        `json:"data,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// ErrorEnvelope represents the error response contract.
type ErrorEnvelope struct {
	Message    string                 `json:"message"`
	Status     string                 `json:"status"`
	StatusCode int                    `json:"statusCode"`
	Errors     []appErrors.FieldError `json:"errors,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Data: data, Pagination: pagination})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	fields := appErr.Fields
	if fields == nil {
		fields = fieldErrors(appErr)
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, ErrorEnvelope{
		Message:    appErr.Message,
		Status:     "error",
		StatusCode: appErr.Status,
		Errors:     fields,
	})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func fieldErrors(err *appErrors.Error) []appErrors.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]appErrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, appErrors.FieldError{Path: fe.Field(), Message: fe.Tag()})
	}
	return fields
}
