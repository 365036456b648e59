package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/inventario-ti/inventario/internal/auth"
	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/policy"
	"github.com/inventario-ti/inventario/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// message writes a {"mensaje": ...} body plus any extra fields.
func message(w http.ResponseWriter, status int, text string, extra map[string]any) {
	body := map[string]any{"mensaje": text}
	for k, v := range extra {
		body[k] = v
	}
	jsonResponse(w, status, body)
}

// writeError maps err onto a status code. Errors outside the known taxonomy
// are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrInvalidReference):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		jsonError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrAccountDisabled):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, policy.ErrForbidden):
		jsonError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target. Validation
// errors raised while decoding are kept; anything else becomes a generic
// invalid-body error.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return bodyError(err)
	}
	return nil
}

// unmarshalBody decodes an already read body into each target in turn, so
// one flat object can fill several structs.
func unmarshalBody(data []byte, targets ...any) error {
	for _, t := range targets {
		if err := json.Unmarshal(data, t); err != nil {
			return bodyError(err)
		}
	}
	return nil
}

func bodyError(err error) error {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return &model.ValidationError{Message: "invalid request body"}
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter; ok is false
// when the parameter is absent.
func queryID(r *http.Request, name string) (id int64, ok bool, err error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, model.Invalid(name, "must be a positive integer")
	}
	return id, true, nil
}

// emptyIfNil keeps empty lists serialising as [] rather than null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
