package controllers

import (
	"errors"
	"net/http"
	"strconv"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"aerarium/pagination"
	"aerarium/services"
)

// MessageResponse is the body of plain confirmation and error responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeError translates a service error into the matching HTTP response.
// Unknown errors are logged and reported as a generic 500.
func writeError(response *restful.Response, log *zap.Logger, err error) {
	statusCode := http.StatusInternalServerError
	message := "An internal error occurred"

	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, pagination.ErrPageOutOfRange):
		statusCode = http.StatusNotFound
		message = "Not found"
	case errors.Is(err, services.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, services.ErrForbidden):
		statusCode = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, services.ErrConflict):
		statusCode = http.StatusConflict
		message = err.Error()
	case errors.Is(err, services.ErrValidation):
		statusCode = http.StatusBadRequest
		message = err.Error()
	default:
		log.Error("Unhandled service error", zap.Error(err))
	}

	_ = response.WriteHeaderAndJson(statusCode, MessageResponse{Message: message}, restful.MIME_JSON)
}

// writeBadRequest reports an unreadable or invalid request body.
func writeBadRequest(response *restful.Response, message string) {
	_ = response.WriteHeaderAndJson(http.StatusBadRequest, MessageResponse{Message: message}, restful.MIME_JSON)
}

// writeJSON writes the given payload with the given status code.
func writeJSON(response *restful.Response, statusCode int, payload interface{}) {
	_ = response.WriteHeaderAndJson(statusCode, payload, restful.MIME_JSON)
}

// pageParameter reads the "page" query parameter, defaulting to 1 when
// absent. Non-numeric values map to 0 so the pagination range check
// rejects them.
func pageParameter(request *restful.Request) int {
	pageStr := request.QueryParameter("page")
	if pageStr == "" {
		return 1
	}
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		return 0
	}
	return page
}
