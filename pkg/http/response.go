package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SuccessResponse writes data as a 200 JSON body.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// ErrorResponse writes {"error": message} with status.
func ErrorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorBody{Error: message})
}

// ValidationErrorResponse writes a 400 whose error is the first failure's message.
func ValidationErrorResponse(c echo.Context, errs []ValidationError) error {
	msg := "invalid request"
	if len(errs) > 0 && errs[0].Message != "" {
		msg = errs[0].Message
	}
	return c.JSON(http.StatusBadRequest, ErrorBody{Error: msg, Details: errs})
}

// AppErrorResponse writes an AppError with its own status; anything else is a 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return ErrorResponse(c, appErr.Status, appErr.Message)
	}
	return ErrorResponse(c, http.StatusInternalServerError, "An error occurred: "+err.Error())
}
