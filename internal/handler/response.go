package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
)

// ErrorResponse is the body of a failed admin API request. Code carries the
// same kind a session failure would report.
type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    apperr.Kind `json:"code"`
	Message string      `json:"message"`
}

func NewErrorResponse(kind apperr.Kind, message string) ErrorResponse {
	return ErrorResponse{Error: errorPayload{Code: kind, Message: message}}
}

func errorStatus(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindProtocol:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindDuplicate, apperr.KindAlreadyOnline, apperr.KindState:
		return http.StatusConflict
	case apperr.KindUnauthenticated, apperr.KindWrongPassword:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with err's kind and message.
func writeError(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	return c.JSON(errorStatus(kind), NewErrorResponse(kind, apperr.Message(err)))
}
