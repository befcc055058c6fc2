package taskwell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskwell/taskwell/models"
	validator "gopkg.in/go-playground/validator.v9"
)

type errorResponse struct {
	Errors []string `json:"errors"`
}

// WriteDataResponse writes a JSON response with the given status code
func WriteDataResponse(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response for the passed in error, mapping it
// to a status code by type. Collaborator failures are logged server side and
// never leak detail to the client body.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) error {
	if vErrs, isValidation := err.(validator.ValidationErrors); isValidation {
		msgs := make([]string, 0, len(vErrs))
		for i := range vErrs {
			msgs = append(msgs, fmt.Sprintf("field '%s' %s", strings.ToLower(vErrs[i].Field()), vErrs[i].Tag()))
		}
		return WriteDataResponse(w, http.StatusBadRequest, &errorResponse{msgs})
	}

	if errors.Is(err, models.ErrNotFound) {
		return WriteDataResponse(w, http.StatusNotFound, &errorResponse{[]string{"not found"}})
	}

	slog.Error("error handling request", "error", err)
	return WriteDataResponse(w, http.StatusBadGateway, &errorResponse{[]string{"temporarily unavailable"}})
}

// WriteBadRequest writes a 400 JSON error response with the given message
func WriteBadRequest(w http.ResponseWriter, message string) error {
	return WriteDataResponse(w, http.StatusBadRequest, &errorResponse{[]string{message}})
}

// WriteUnauthorized writes a 401 JSON error response, logging the underlying
// reason but not including it in the body
func WriteUnauthorized(ctx context.Context, w http.ResponseWriter, err error) error {
	slog.Info("request not authorized", "error", err)
	return WriteDataResponse(w, http.StatusUnauthorized, &errorResponse{[]string{"not authorized"}})
}
