package http

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/logger"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: code, Message: message})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindInvalidState, domain.KindInvalidToken, domain.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondDomainError maps a service failure to its status and body. Internal
// causes are logged and never echoed.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		logger.Error("Request failed", "route", routeKey(r), "error", err)
	}
	respondError(w, statusForKind(kind), string(kind), domain.MessageOf(err))
}

// decodeBody reads a JSON body into dst and runs struct validation. It writes
// the 400 response itself and reports whether the handler may continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, string(domain.KindInvalidInput), "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:   string(domain.KindInvalidInput),
			Message: "invalid request body",
			Fields:  formatValidationErrors(err),
		})
		return false
	}
	return true
}

func formatValidationErrors(err error) map[string]string {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fields
	}
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "This field is required"
		case "uuid":
			fields[fe.Field()] = "Must be a valid UUID"
		case "max":
			fields[fe.Field()] = "Must be at most " + fe.Param() + " characters"
		case "gte":
			fields[fe.Field()] = "Must be at least " + fe.Param()
		case "lte":
			fields[fe.Field()] = "Must be at most " + fe.Param()
		default:
			fields[fe.Field()] = "Failed on " + fe.Tag() + " validation"
		}
	}
	return fields
}
