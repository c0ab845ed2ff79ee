package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/protocol-risk/internal/dashboard"
	"github.com/yourorg/protocol-risk/internal/model"
)

// maxLimit bounds the limit query parameter.
const maxLimit = 1000

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	Error      string `json:"error"`
}

// writeJSON encodes v with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to encode response")
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, statusCode int, errorMsg string) {
	if statusCode >= http.StatusInternalServerError {
		logrus.Warn(errorMsg)
	} else {
		logrus.Debug(errorMsg)
	}

	writeJSON(w, statusCode, ErrorResponse{
		StatusCode: statusCode,
		Status:     "error",
		Error:      errorMsg,
	})
}

// failWith maps a service error onto an HTTP status.
func (s *Server) failWith(w http.ResponseWriter, err error) {
	s.errorResponse(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrUnknownProtocol):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrInvalidState), errors.Is(err, errInvalidLimit):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

var errInvalidLimit = errors.New("invalid limit")

// parseLimit reads the limit query parameter. Absent means zero, which the
// service replaces with its default.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxLimit {
		return 0, fmt.Errorf("%w %q: expected an integer between 0 and %d", errInvalidLimit, raw, maxLimit)
	}
	return n, nil
}
