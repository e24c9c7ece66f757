package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/propfolio/propfolio/internal/http/middleware"
	"github.com/propfolio/propfolio/internal/http/response"
	"github.com/propfolio/propfolio/internal/repository"
	"github.com/propfolio/propfolio/internal/service"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON decodes and schema-validates a request body before any
// domain logic runs. On failure it writes the error response and
// returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body", nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		msg := "invalid request"
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = "invalid field: " + verrs[0].Field()
		}
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", msg, nil)
		return false
	}
	return true
}

func principal(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing principal", nil)
		return 0, false
	}
	return id, true
}

func parseID(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

// queryID reads an optional numeric query parameter. A present but
// unparsable value is treated as absent.
func queryID(r *http.Request, name string) (uint, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	id, err := parseID(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

func setIf[T any](fields map[string]any, column string, v *T) {
	if v != nil {
		fields[column] = *v
	}
}

// notFoundAs folds the repository's sentinel into the service-layer
// error space so ServiceError maps it to a 404.
func notFoundAs(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return service.ErrNotFound
	}
	return err
}
