package handler

import (
	"errors"
	"net/http"

	"github.com/edirooss/witness-console/internal/backend"
	"github.com/edirooss/witness-console/internal/service"
	"github.com/edirooss/witness-console/pkg/jsonx"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes.
//
//   - invalid input           → 422
//   - duplicate label         → 409
//   - unknown export format   → 404
//   - backend unreachable/4xx/5xx → 502
//   - anything else           → 500
func statusFor(err error) int {
	var se *backend.StatusError
	switch {
	case errors.Is(err, service.ErrInvalidCamera):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrDuplicateLabel):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnknownFormat):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrTransport), errors.As(err, &se):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail records err on the context and writes the mapped status with a message body.
func fail(c *gin.Context, err error) {
	c.Error(err)
	c.JSON(statusFor(err), gin.H{"message": err.Error()})
}

func bind[T any](req *http.Request, obj *T) error {
	if req == nil || req.Body == nil {
		return errors.New("invalid request")
	}
	return jsonx.ParseStrictJSONBody(req, obj)
}
